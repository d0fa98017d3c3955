// Package notify delivers user notifications to the configured sinks.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

// Fanout delivers every notification to all sinks. A failing sink does not
// stop delivery to the others.
type Fanout struct {
	sinks []service.Notifier
}

// NewFanout creates a Fanout over the non-nil sinks.
func NewFanout(sinks ...service.Notifier) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Notify implements service.Notifier.
func (f *Fanout) Notify(ctx context.Context, n *domain.Notification) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes notifications to the structured log. Used when no broker or push
// credentials are configured.
type Log struct{}

// Notify implements service.Notifier.
func (Log) Notify(ctx context.Context, n *domain.Notification) error {
	slog.InfoContext(ctx, "notification",
		"action", "notify",
		"type", n.Type,
		"uid", n.RecipientUID,
		"title", n.Title,
	)
	return nil
}

var (
	_ service.Notifier = (*Fanout)(nil)
	_ service.Notifier = Log{}
	_ service.Notifier = (*Inbox)(nil)
	_ service.Notifier = (*Publisher)(nil)
	_ service.Notifier = (*PushSender)(nil)
)
