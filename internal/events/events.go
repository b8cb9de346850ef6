// Package events announces application status transitions to interested listeners.
package events

import (
	"context"
	"time"
)

// StatusChanged is published whenever an application's generation status moves.
type StatusChanged struct {
	ApplicationID string    `json:"application_id"`
	Status        string    `json:"status"`
	Message       string    `json:"message,omitempty"`
	DownloadURL   string    `json:"download_url,omitempty"`
	At            time.Time `json:"at"`
}

// Publisher delivers status events. Delivery is best-effort.
type Publisher interface {
	Publish(ctx context.Context, evt StatusChanged) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, StatusChanged) error { return nil }
func (Nop) Close() error                                 { return nil }

var _ Publisher = Nop{}
