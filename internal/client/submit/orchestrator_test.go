package submit

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"sync"
	"testing"

	"ATMS-backend/internal/client/api"
	"ATMS-backend/internal/client/camera"
	"ATMS-backend/internal/client/geoloc"
	"ATMS-backend/internal/client/imaging"
)

type fakeCamera struct {
	frame   []byte
	openErr error
	closes  int
}

func (d *fakeCamera) Open(context.Context) error          { return d.openErr }
func (d *fakeCamera) Grab(context.Context) ([]byte, error) { return d.frame, nil }
func (d *fakeCamera) Close() error                        { d.closes++; return nil }

type fakeLocator struct {
	sample geoloc.Sample
	err    error
}

func (p *fakeLocator) AcquireOnce(context.Context) (geoloc.Sample, error) {
	if p.err != nil {
		return geoloc.Sample{}, p.err
	}
	return p.sample, nil
}

type fakeLedger struct {
	mu          sync.Mutex
	submitErr   error
	submitted   []api.Submission
	last        *api.LastEvent
	lastErr     error
	submitStart chan struct{} // closed when Submit begins, if set
	submitGate  chan struct{} // Submit blocks on this, if set
}

func (l *fakeLedger) Submit(_ context.Context, _ api.Session, sub api.Submission) (api.SubmittedEvent, error) {
	if l.submitStart != nil {
		close(l.submitStart)
	}
	if l.submitGate != nil {
		<-l.submitGate
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.submitErr != nil {
		return api.SubmittedEvent{}, l.submitErr
	}
	l.submitted = append(l.submitted, sub)
	l.last = &api.LastEvent{Type: sub.Kind}
	return api.SubmittedEvent{EventID: "01EV", Type: sub.Kind}, nil
}

func (l *fakeLedger) LastEvent(context.Context, api.Session) (*api.LastEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lastErr != nil {
		return nil, l.lastErr
	}
	return l.last, nil
}

func validJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestOrchestrator(t *testing.T, cam *fakeCamera, loc geoloc.Provider, ledger Ledger) *Orchestrator {
	t.Helper()
	return New(camera.NewController(cam), loc, ledger, api.Session{Token: "tok", UserID: "01U"}, imaging.Options{}, nil)
}

func TestHappyPath(t *testing.T) {
	cam := &fakeCamera{frame: validJPEG(t)}
	ledger := &fakeLedger{}
	o := newTestOrchestrator(t, cam, &fakeLocator{sample: geoloc.Sample{Latitude: 13.0827, Longitude: 80.2707}}, ledger)

	ctx := context.Background()
	if err := o.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if o.State() != StateCapturing {
		t.Fatalf("state = %s", o.State())
	}
	if err := o.Capture(ctx); err != nil {
		t.Fatal(err)
	}
	if o.State() != StateCaptured {
		t.Fatalf("state = %s", o.State())
	}
	if err := o.AcquireLocation(ctx); err != nil {
		t.Fatal(err)
	}
	if o.State() != StateReadyToSubmit {
		t.Fatalf("state = %s", o.State())
	}

	res, err := o.Submit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if o.State() != StateSucceeded {
		t.Fatalf("state = %s", o.State())
	}
	if res.Type != api.KindCheckIn {
		t.Fatalf("submitted kind = %s", res.Type)
	}
	if cam.closes != 1 {
		t.Fatalf("camera closed %d times, want 1", cam.closes)
	}

	sub := ledger.submitted[0]
	if sub.Location != "13.0827,80.2707" {
		t.Fatalf("location = %q", sub.Location)
	}
	if sub.IdempotencyKey == "" {
		t.Fatal("no idempotency key")
	}
	// A successful submit refreshes the toggle off the new last event.
	if o.NextKind() != api.KindCheckOut {
		t.Fatalf("next kind = %s", o.NextKind())
	}
}

func TestToggleInference(t *testing.T) {
	cases := []struct {
		name string
		last *api.LastEvent
		want string
	}{
		{name: "no history defaults to check-in", last: nil, want: api.KindCheckIn},
		{name: "after check-in", last: &api.LastEvent{Type: api.KindCheckIn}, want: api.KindCheckOut},
		{name: "after check-out", last: &api.LastEvent{Type: api.KindCheckOut}, want: api.KindCheckIn},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := newTestOrchestrator(t, &fakeCamera{}, &fakeLocator{}, &fakeLedger{last: tc.last})
			kind, err := o.RefreshToggle(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if kind != tc.want || o.NextKind() != tc.want {
				t.Fatalf("kind = %s, want %s", kind, tc.want)
			}
		})
	}
}

func TestCompressionFailureStaysCapturing(t *testing.T) {
	cam := &fakeCamera{frame: []byte("not a jpeg")}
	o := newTestOrchestrator(t, cam, &fakeLocator{}, &fakeLedger{})

	ctx := context.Background()
	if err := o.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := o.Capture(ctx); !errors.Is(err, imaging.ErrCompressionFailed) {
		t.Fatalf("err = %v, want ErrCompressionFailed", err)
	}
	if o.State() != StateCapturing {
		t.Fatalf("state = %s, want capturing", o.State())
	}

	// A retake with a good frame proceeds.
	cam.frame = validJPEG(t)
	if err := o.Capture(ctx); err != nil {
		t.Fatal(err)
	}
	if o.State() != StateCaptured {
		t.Fatalf("state = %s", o.State())
	}
}

func TestLocationFailureReturnsToCaptured(t *testing.T) {
	loc := &fakeLocator{err: geoloc.ErrPositionUnavailable}
	o := newTestOrchestrator(t, &fakeCamera{frame: validJPEG(t)}, loc, &fakeLedger{})

	ctx := context.Background()
	if err := o.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := o.Capture(ctx); err != nil {
		t.Fatal(err)
	}
	if err := o.AcquireLocation(ctx); !errors.Is(err, geoloc.ErrPositionUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if o.State() != StateCaptured {
		t.Fatalf("state = %s, want captured", o.State())
	}

	loc.err = nil
	loc.sample = geoloc.Sample{Latitude: 1, Longitude: 2}
	if err := o.AcquireLocation(ctx); err != nil {
		t.Fatal(err)
	}
	if o.State() != StateReadyToSubmit {
		t.Fatalf("state = %s", o.State())
	}
}

func TestSubmitFailureRetriesWithSameKey(t *testing.T) {
	ledger := &fakeLedger{submitErr: errors.New("network down")}
	o := newTestOrchestrator(t, &fakeCamera{frame: validJPEG(t)}, &fakeLocator{sample: geoloc.Sample{Latitude: 1, Longitude: 2}}, ledger)

	ctx := context.Background()
	if err := o.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := o.Capture(ctx); err != nil {
		t.Fatal(err)
	}
	if err := o.AcquireLocation(ctx); err != nil {
		t.Fatal(err)
	}
	keyBefore := o.idemKey

	if _, err := o.Submit(ctx); err == nil {
		t.Fatal("want submit error")
	}
	if o.State() != StateFailed {
		t.Fatalf("state = %s, want failed", o.State())
	}

	// Retry goes back to ready-to-submit without recapturing.
	if err := o.Retry(); err != nil {
		t.Fatal(err)
	}
	if o.State() != StateReadyToSubmit {
		t.Fatalf("state = %s", o.State())
	}

	ledger.submitErr = nil
	if _, err := o.Submit(ctx); err != nil {
		t.Fatal(err)
	}
	if got := ledger.submitted[0].IdempotencyKey; got != keyBefore {
		t.Fatalf("retry key = %q, want %q", got, keyBefore)
	}
}

func TestSingleAttemptGating(t *testing.T) {
	o := newTestOrchestrator(t, &fakeCamera{frame: validJPEG(t)}, &fakeLocator{}, &fakeLedger{})

	// Submit is only legal from ready-to-submit.
	if _, err := o.Submit(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	if err := o.Capture(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	if err := o.Retry(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestCancelDuringSubmitDiscardsResult(t *testing.T) {
	ledger := &fakeLedger{
		submitStart: make(chan struct{}),
		submitGate:  make(chan struct{}),
	}
	o := newTestOrchestrator(t, &fakeCamera{frame: validJPEG(t)}, &fakeLocator{sample: geoloc.Sample{Latitude: 1, Longitude: 2}}, ledger)

	ctx := context.Background()
	if err := o.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := o.Capture(ctx); err != nil {
		t.Fatal(err)
	}
	if err := o.AcquireLocation(ctx); err != nil {
		t.Fatal(err)
	}

	type result struct {
		res api.SubmittedEvent
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := o.Submit(ctx)
		done <- result{res, err}
	}()

	<-ledger.submitStart
	if err := o.Cancel(); err != nil {
		t.Fatal(err)
	}
	close(ledger.submitGate)

	got := <-done
	if !errors.Is(got.err, ErrInvalidState) {
		t.Fatalf("raced submit err = %v, want ErrInvalidState", got.err)
	}
	if got.res.EventID != "" {
		t.Fatal("raced submit leaked a result")
	}
	if o.State() != StateIdle {
		t.Fatalf("state = %s, want idle", o.State())
	}
}

func TestCancelReleasesCamera(t *testing.T) {
	cam := &fakeCamera{frame: validJPEG(t)}
	o := newTestOrchestrator(t, cam, &fakeLocator{}, &fakeLedger{})

	ctx := context.Background()
	if err := o.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := o.Capture(ctx); err != nil {
		t.Fatal(err)
	}
	if err := o.Cancel(); err != nil {
		t.Fatal(err)
	}
	if o.State() != StateIdle {
		t.Fatalf("state = %s, want idle", o.State())
	}
	if cam.closes != 1 {
		t.Fatalf("camera closed %d times, want 1", cam.closes)
	}
	if len(o.image) != 0 || o.idemKey != "" {
		t.Fatal("transient attempt data survived cancel")
	}
}

func TestStartFailsWhenCameraUnavailable(t *testing.T) {
	cam := &fakeCamera{openErr: errors.New("busy")}
	o := newTestOrchestrator(t, cam, &fakeLocator{}, &fakeLedger{})

	if err := o.Start(context.Background()); !errors.Is(err, camera.ErrCameraUnavailable) {
		t.Fatalf("err = %v, want ErrCameraUnavailable", err)
	}
	if o.State() != StateIdle {
		t.Fatalf("state = %s, want idle", o.State())
	}
}
