// Package notify delivers detection alerts to external sinks.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/Karshmistry/CrimAII/internal/config"
	"github.com/Karshmistry/CrimAII/internal/constants"
	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/Karshmistry/CrimAII/internal/metrics"
)

// Notifier delivers one detection to a sink.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, d *database.Detection) error
}

// Message renders the plain-text alert for a detection.
func Message(d *database.Detection) string {
	msg := fmt.Sprintf("CrimAI alert: %s detected at %s UTC (source: %s)",
		d.CriminalName, d.DetectedAt.UTC().Format(constants.DisplayTimeLayout), d.Source)
	if d.CriminalDetails.Crime != "" {
		msg += ". Crime: " + d.CriminalDetails.Crime
	}
	return msg
}

// Multi fans a detection out to several notifiers. A failing notifier does not
// stop the others.
type Multi struct {
	notifiers []Notifier
	metrics   *metrics.Metrics
}

// NewMulti combines notifiers.
func NewMulti(m *metrics.Metrics, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, metrics: m}
}

// Name returns "multi".
func (m *Multi) Name() string { return "multi" }

// Len returns the number of wrapped notifiers.
func (m *Multi) Len() int { return len(m.notifiers) }

// Notify sends d to every notifier and joins their errors.
func (m *Multi) Notify(ctx context.Context, d *database.Detection) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, d); err != nil {
			m.metrics.NotifyFailed(n.Name())
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close closes notifiers that hold connections.
func (m *Multi) Close() {
	for _, n := range m.notifiers {
		if c, ok := n.(interface{ Close() }); ok {
			c.Close()
		}
	}
}

// FromConfig builds the notifiers enabled in cfg. It returns an empty Multi when none are.
func FromConfig(cfg *config.NotifyConfig, m *metrics.Metrics) (*Multi, error) {
	var ns []Notifier
	if len(cfg.URLs) > 0 {
		s, err := NewShoutrrr(cfg.URLs, 0)
		if err != nil {
			return nil, err
		}
		ns = append(ns, s)
	}
	if cfg.MQTTBroker != "" {
		q, err := NewMQTT(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic)
		if err != nil {
			for _, n := range ns {
				if c, ok := n.(interface{ Close() }); ok {
					c.Close()
				}
			}
			return nil, err
		}
		ns = append(ns, q)
	}
	return NewMulti(m, ns...), nil
}
