package submit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ATMS-backend/internal/client/api"
	"ATMS-backend/internal/client/camera"
	"ATMS-backend/internal/client/geoloc"
	"ATMS-backend/internal/client/imaging"
)

// State of the current submission attempt.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateCaptured
	StateLocationPending
	StateReadyToSubmit
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateCaptured:
		return "captured"
	case StateLocationPending:
		return "location-pending"
	case StateReadyToSubmit:
		return "ready-to-submit"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// ErrInvalidState: the requested step is not legal from the current
// state. Also what a second concurrent submit attempt gets.
var ErrInvalidState = errors.New("invalid state for operation")

// Ledger is the server-side write/read surface the orchestrator talks
// to. *api.Client satisfies it.
type Ledger interface {
	Submit(ctx context.Context, s api.Session, sub api.Submission) (api.SubmittedEvent, error)
	LastEvent(ctx context.Context, s api.Session) (*api.LastEvent, error)
}

// Orchestrator runs one attendance submission at a time:
//
//	Idle -> Capturing -> Captured -> LocationPending -> ReadyToSubmit
//	     -> Submitting -> Succeeded | Failed
//
// Compression failure keeps the attempt in Capturing, a location
// failure drops back to Captured, and a failed submit can be retried
// from ReadyToSubmit without recapturing. Only one attempt may be in
// flight per session.
type Orchestrator struct {
	mu      sync.Mutex
	state   State
	cam     *camera.Controller
	loc     geoloc.Provider
	ledger  Ledger
	session api.Session
	opts    imaging.Options
	log     *logrus.Entry

	nextKind string
	image    []byte
	sample   geoloc.Sample
	idemKey  string
}

func New(cam *camera.Controller, loc geoloc.Provider, ledger Ledger, session api.Session, opts imaging.Options, log *logrus.Entry) *Orchestrator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Orchestrator{
		cam:      cam,
		loc:      loc,
		ledger:   ledger,
		session:  session,
		opts:     opts,
		log:      log,
		nextKind: api.KindCheckIn,
	}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// NextKind is the inferred kind for the upcoming submission.
func (o *Orchestrator) NextKind() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.nextKind
}

// RefreshToggle reads the user's most recent event and flips the next
// kind to its opposite; with no history the next kind is check-in. The
// inference is advisory, the server accepts either kind.
func (o *Orchestrator) RefreshToggle(ctx context.Context) (string, error) {
	last, err := o.ledger.LastEvent(ctx, o.session)
	if err != nil {
		return "", fmt.Errorf("refresh toggle: %w", err)
	}

	kind := api.KindCheckIn
	if last != nil && last.Type == api.KindCheckIn {
		kind = api.KindCheckOut
	}

	o.mu.Lock()
	o.nextKind = kind
	o.mu.Unlock()
	return kind, nil
}

// Start opens the camera and begins a fresh attempt. Legal from Idle
// or from a finished attempt.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	switch o.state {
	case StateIdle, StateSucceeded, StateFailed:
	default:
		o.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidState, o.state)
	}
	o.reset()
	o.state = StateCapturing
	o.mu.Unlock()

	if err := o.cam.Open(ctx); err != nil {
		o.mu.Lock()
		o.state = StateIdle
		o.mu.Unlock()
		return err
	}
	return nil
}

// Capture grabs a still and compresses it. On compression failure the
// attempt stays in Capturing so the user can retake the shot.
func (o *Orchestrator) Capture(ctx context.Context) error {
	if o.State() != StateCapturing {
		return fmt.Errorf("%w: capture from %s", ErrInvalidState, o.State())
	}

	frame, err := o.cam.Capture(ctx)
	if err != nil {
		return err
	}

	compressed, err := imaging.CompressJPEG(frame.Data, o.opts)
	if err != nil {
		o.log.WithError(err).Warn("selfie compression failed, retake required")
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateCapturing {
		// Cancelled while compressing.
		return fmt.Errorf("%w: capture from %s", ErrInvalidState, o.state)
	}
	o.image = compressed
	o.state = StateCaptured
	return nil
}

// AcquireLocation requests a single position fix. Failure returns the
// attempt to Captured; the submission cannot proceed without one.
func (o *Orchestrator) AcquireLocation(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateCaptured {
		o.mu.Unlock()
		return fmt.Errorf("%w: acquire location from %s", ErrInvalidState, o.state)
	}
	o.state = StateLocationPending
	o.mu.Unlock()

	sample, err := o.loc.AcquireOnce(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateLocationPending {
		return fmt.Errorf("%w: acquire location from %s", ErrInvalidState, o.state)
	}
	if err != nil {
		o.state = StateCaptured
		return err
	}
	o.sample = sample
	// One key per attempt, reused across submit retries so the server
	// can collapse duplicates.
	if o.idemKey == "" {
		o.idemKey = uuid.NewString()
	}
	o.state = StateReadyToSubmit
	return nil
}

// Submit sends the composite submission. Gated on ReadyToSubmit, which
// also enforces single-attempt-at-a-time.
func (o *Orchestrator) Submit(ctx context.Context) (api.SubmittedEvent, error) {
	o.mu.Lock()
	if o.state != StateReadyToSubmit {
		o.mu.Unlock()
		return api.SubmittedEvent{}, fmt.Errorf("%w: submit from %s", ErrInvalidState, o.state)
	}
	o.state = StateSubmitting
	sub := api.Submission{
		Kind:           o.nextKind,
		Location:       o.sample.String(),
		Image:          o.image,
		IdempotencyKey: o.idemKey,
	}
	o.mu.Unlock()

	res, err := o.ledger.Submit(ctx, o.session, sub)

	o.mu.Lock()
	if o.state != StateSubmitting {
		// Cancelled while the request was in flight; the result is
		// discarded, whatever it was.
		st := o.state
		o.mu.Unlock()
		return api.SubmittedEvent{}, fmt.Errorf("%w: submit finished in %s", ErrInvalidState, st)
	}
	if err != nil {
		o.state = StateFailed
		o.mu.Unlock()
		o.log.WithError(err).Error("attendance submission failed")
		return api.SubmittedEvent{}, err
	}
	o.reset()
	o.state = StateSucceeded
	o.mu.Unlock()

	if cerr := o.cam.Close(); cerr != nil {
		o.log.WithError(cerr).Warn("camera release failed")
	}
	if _, terr := o.RefreshToggle(ctx); terr != nil {
		o.log.WithError(terr).Warn("toggle refresh after submission failed")
	}
	return res, nil
}

// Retry rearms a failed attempt for another Submit, keeping the
// captured image, the position sample, and the idempotency key.
func (o *Orchestrator) Retry() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateFailed {
		return fmt.Errorf("%w: retry from %s", ErrInvalidState, o.state)
	}
	if len(o.image) == 0 {
		return fmt.Errorf("%w: nothing to retry", ErrInvalidState)
	}
	o.state = StateReadyToSubmit
	return nil
}

// Cancel abandons the attempt on any state, releases the camera, and
// drops all transient data. Safe concurrently with an in-flight
// Capture, whose frame is then discarded.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	o.reset()
	o.state = StateIdle
	o.mu.Unlock()
	return o.cam.Close()
}

// reset drops per-attempt data. Caller holds o.mu.
func (o *Orchestrator) reset() {
	o.image = nil
	o.sample = geoloc.Sample{}
	o.idemKey = ""
}
