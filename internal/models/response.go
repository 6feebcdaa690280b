package models

// TelegramMessage points at the relayed copy of an artifact in the storage
// channel.
type TelegramMessage struct {
	MsgID int    `json:"msg_id"`
	TLink string `json:"tlink"`
}

// Timing is the per-stage latency breakdown included in success responses.
type Timing struct {
	DownloadMS int64 `json:"download_ms"`
	UploadMS   int64 `json:"upload_ms"`
	TotalMS    int64 `json:"total_ms"`
}

// DeliveryResult carries the media details of a completed request.
type DeliveryResult struct {
	Title       string          `json:"title"`
	Duration    string          `json:"duration"` // ISO-8601, e.g. "PT3M14S"
	Quality     string          `json:"quality"`
	URL         string          `json:"url"`
	FileID      string          `json:"file_id"`
	ContentID   string          `json:"content_id"`
	TelegramMsg TelegramMessage `json:"telegram_msg"`
	Timing      Timing          `json:"timing"`
}

// DeliveryResponse is the top-level envelope returned by the /audio and /video
// endpoints. Cached responses are replayed from the content cache with Cached
// flipped to true.
type DeliveryResponse struct {
	Status bool           `json:"status"`
	Type   string         `json:"type"` // "Audio" / "Video"
	Result DeliveryResult `json:"result"`
	Cached bool           `json:"cached"`
	Error  string         `json:"error,omitempty"`
}
