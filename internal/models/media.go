package models

// MediaKind selects the rendition produced for a request: an mp3 audio track
// or an mp4 video file.
type MediaKind string

const (
	KindAudio MediaKind = "audio"
	KindVideo MediaKind = "video"
)

// Label returns the capitalized form used in the response envelope's "type"
// field ("Audio" / "Video").
func (k MediaKind) Label() string {
	switch k {
	case KindAudio:
		return "Audio"
	case KindVideo:
		return "Video"
	default:
		return string(k)
	}
}

// Endpoint returns the HTTP path a kind is served from.
func (k MediaKind) Endpoint() string {
	return "/" + string(k)
}
