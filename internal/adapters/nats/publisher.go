package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/trailpace/internal/core/domain"
)

const (
	// StreamPredictions holds prediction events for a day.
	StreamPredictions = "HIKE_PREDICTIONS"
	// SubjectPredictions matches every prediction event.
	SubjectPredictions = "hike.prediction.>"

	subjectPrefix = "hike.prediction."
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      StreamPredictions,
		Subjects:  []string{SubjectPredictions},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
		// Deduplicates retried publishes of the same prediction.
		Duplicates: 2 * time.Minute,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// Subject returns the subject a prediction is published on.
func Subject(id string) string { return subjectPrefix + id }

// PublishPrediction announces a prediction. Segments are left out; consumers
// fetch them over the API.
func (p *Publisher) PublishPrediction(ctx context.Context, pred *domain.Prediction) error {
	data, err := json.Marshal(pred.Overview())
	if err != nil {
		return err
	}
	_, err = p.js.Publish(Subject(pred.ID), data, nats.Context(ctx), nats.MsgId(pred.ID))
	return err
}

// Healthy reports whether the connection is up.
func (p *Publisher) Healthy() bool {
	return p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("trailpace"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
