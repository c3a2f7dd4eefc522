package notify

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/Karshmistry/CrimAII/internal/database"
	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
)

const defaultShoutrrrTimeout = 10 * time.Second

// sender is the part of shoutrrr's router used here.
type sender interface {
	Send(message string, params *types.Params) []error
}

// Shoutrrr sends a text alert to every configured shoutrrr service URL.
type Shoutrrr struct {
	sender sender
}

// NewShoutrrr validates the service URLs and builds a sender.
func NewShoutrrr(urls []string, timeout time.Duration) (*Shoutrrr, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one notification URL is required")
	}
	r, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		// Service URLs carry credentials; keep them out of the error.
		return nil, errors.New("invalid notification URL in NOTIFY_URLS")
	}
	if timeout <= 0 {
		timeout = defaultShoutrrrTimeout
	}
	r.Timeout = timeout
	r.SetLogger(log.New(io.Discard, "", 0))
	return &Shoutrrr{sender: r}, nil
}

// Name returns "shoutrrr".
func (s *Shoutrrr) Name() string { return "shoutrrr" }

// Notify sends the alert. The router applies its own timeout.
func (s *Shoutrrr) Notify(_ context.Context, d *database.Detection) error {
	params := types.Params{}
	params.SetTitle("CrimAI detection")
	return errors.Join(s.sender.Send(Message(d), &params)...)
}

