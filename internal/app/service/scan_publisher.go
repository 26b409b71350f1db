package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"qroute/internal/app/model"
)

// ScanPublisher publishes scan events to NATS JetStream. Resolution never
// waits on it; handlers publish from a goroutine.
type ScanPublisher struct {
	js nats.JetStreamContext
}

// NewScanPublisher creates a scan event publisher.
func NewScanPublisher(js nats.JetStreamContext) *ScanPublisher {
	return &ScanPublisher{js: js}
}

// Publish records one scan outcome on the stream.
func (p *ScanPublisher) Publish(routeID string, res ResolveResult, ip, userAgent string) error {
	event := model.ScanEvent{
		ID:        uuid.New().String(),
		RouteID:   routeID,
		Found:     res.Found,
		Enabled:   res.Enabled,
		Target:    res.Target,
		IP:        ip,
		UserAgent: userAgent,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.ScanStreamSubject, data)
	return err
}
