// Package events publishes request-outcome events to RabbitMQ for downstream
// analytics. Publishing is best effort: a missing broker degrades to a no-op.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/taitanx/media-delivery-backend/internal/config"
)

const queueName = "request_events"

// RequestEvent mirrors one ledger record plus timing for consumers that
// aggregate usage out of process.
type RequestEvent struct {
	RequestID  string    `json:"request_id"`
	UserID     string    `json:"user_id"`
	Endpoint   string    `json:"endpoint"`
	ContentID  string    `json:"content_id"`
	Success    bool      `json:"success"`
	Cached     bool      `json:"cached"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher writes events to a durable queue. A nil *Publisher is valid and
// drops everything, so callers never branch on broker availability.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher connects to RabbitMQ and declares the queue.
func NewPublisher(cfg *config.Config) (*Publisher, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser, cfg.RabbitMQPass, cfg.RabbitMQHost, cfg.RabbitMQPort)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	logrus.Info("Request event publisher initialized")
	return &Publisher{conn: conn, channel: channel}, nil
}

// Publish enqueues one event. Failures are logged and swallowed; analytics
// must never affect a response.
func (p *Publisher) Publish(event RequestEvent) {
	if p == nil {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Warn("Failed to marshal request event")
		return
	}

	err = p.channel.Publish(
		"",        // exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		logrus.WithError(err).Warn("Failed to publish request event")
	}
}

// Close releases the channel and connection.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
