package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrCameraUnavailable: the device could not be acquired (missing,
	// busy, or permission denied). Terminal for the attempt; the user
	// decides whether to retry.
	ErrCameraUnavailable = errors.New("camera unavailable")
	// ErrNotActive: Capture before a successful Open, or after Close.
	ErrNotActive = errors.New("camera not active")
)

// Frame is one still image read off the active stream.
type Frame struct {
	Data       []byte // JPEG bytes
	CapturedAt time.Time
}

// Device is the platform seam: something that can be opened, grab a
// still frame, and be released.
type Device interface {
	Open(ctx context.Context) error
	Grab(ctx context.Context) ([]byte, error)
	Close() error
}

// Controller owns the stream lifecycle around a Device. Close is
// idempotent and safe to call while a Capture is in flight; the
// in-flight result is discarded.
type Controller struct {
	mu     sync.Mutex
	dev    Device
	active bool
	// bumped on every Close, so a Capture that raced it can tell
	gen int
}

func NewController(dev Device) *Controller {
	return &Controller{dev: dev}
}

func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		return nil
	}
	if err := c.dev.Open(ctx); err != nil {
		// Nothing stays acquired on a failed open.
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	c.active = true
	return nil
}

func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Controller) Capture(ctx context.Context) (Frame, error) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return Frame{}, ErrNotActive
	}
	dev := c.dev
	gen := c.gen
	c.mu.Unlock()

	// Grab runs outside the lock so Close never blocks on it.
	data, err := dev.Grab(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || c.gen != gen {
		// Closed mid-capture; the frame is discarded.
		return Frame{}, ErrNotActive
	}
	if err != nil {
		return Frame{}, fmt.Errorf("capture frame: %w", err)
	}
	if len(data) == 0 {
		return Frame{}, fmt.Errorf("capture frame: empty frame")
	}
	return Frame{Data: data, CapturedAt: time.Now().UTC()}, nil
}

func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return nil
	}
	c.active = false
	c.gen++
	return c.dev.Close()
}
