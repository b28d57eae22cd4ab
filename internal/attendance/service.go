package attendance

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	ulid "github.com/oklog/ulid/v2"
	log "github.com/sirupsen/logrus"

	"ATMS-backend/internal/blob"
	"ATMS-backend/internal/geofence"
	"ATMS-backend/internal/platform/db"
)

// ===== Error model (same shape across domain packages) =====
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict:
			return 409
		default:
			return 500
		}
	}
	return 500
}

// ---- Clock & ID ----
type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface{ NewULID(t time.Time) string }
type ulidGen struct{}

func (ulidGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// ===== Store seam =====

type EventStore interface {
	Insert(ctx context.Context, e *Event) error
	FindByIdempotencyKey(ctx context.Context, employeeULID, key string) (*Event, error)
	LastFor(ctx context.Context, employeeULID string) (*Event, error)
	ListFor(ctx context.Context, employeeULID string) ([]Event, error)
	ListAll(ctx context.Context) ([]Event, error)
	ListByDate(ctx context.Context, dayStart, dayEnd time.Time) ([]Event, error)
	CheckInDays(ctx context.Context, employeeULID string, from, to time.Time) (int, error)
	CountEmployees(ctx context.Context) (int64, error)
	PresentBetween(ctx context.Context, from, to time.Time) (int64, error)
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// ===== Service =====

type Service struct {
	store EventStore
	conn  *sql.DB // nil in tests; enables snapshot reads
	blobs blob.Store
	fence geofence.Config
	clock Clock
	ids   IDGen
}

func NewService(conn *sql.DB, blobs blob.Store, fence geofence.Config) *Service {
	return &Service{
		store: NewStore(conn),
		conn:  conn,
		blobs: blobs,
		fence: fence,
		clock: realClock{},
		ids:   ulidGen{},
	}
}

// Append records one immutable attendance event: the image goes to blob
// storage, the submitted point is geofenced against the office, and the
// event is persisted with a server-assigned UTC timestamp. The write is
// all-or-nothing from the caller's view; a stored image is removed again
// when the row insert fails. A replayed idempotency key returns the
// original event (created=false) instead of a second row.
func (s *Service) Append(ctx context.Context, in AppendInput) (EventResponse, bool, error) {
	if in.UserID == "" {
		return EventResponse{}, false, ErrInvalid("user is required")
	}
	if in.Kind != KindCheckIn && in.Kind != KindCheckOut {
		return EventResponse{}, false, ErrInvalid("type must be check-in or check-out")
	}
	point, err := geofence.ParsePoint(in.Location)
	if err != nil {
		return EventResponse{}, false, ErrInvalid("location must be \"<lat>,<lon>\"")
	}
	if len(in.Image) == 0 {
		return EventResponse{}, false, ErrInvalid("image is required")
	}

	if in.IdempotencyKey != "" {
		prev, err := s.store.FindByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
		if err != nil {
			return EventResponse{}, false, ErrInternal("failed to check idempotency key")
		}
		if prev != nil {
			return prev.toDTO(), false, nil
		}
	}

	ref, err := s.blobs.Save(in.Image)
	if err != nil {
		return EventResponse{}, false, ErrInternal("failed to store image")
	}

	res := geofence.Evaluate(point, s.fence)
	now := s.clock.Now().UTC()
	e := &Event{
		EventULID:    s.ids.NewULID(now),
		EmployeeULID: in.UserID,
		Kind:         in.Kind,
		Latitude:     point.Latitude,
		Longitude:    point.Longitude,
		ImageRef:     ref,
		IsInOffice:   res.IsInOffice,
		DistanceM:    res.DistanceMeters,
		RecordedAt:   now,
	}

	if err := s.insert(ctx, e, in.IdempotencyKey); err != nil {
		if removeErr := s.blobs.Remove(ref); removeErr != nil {
			log.Warnf("orphan blob %s left behind: %v", ref, removeErr)
		}
		if errors.Is(err, ErrDuplicateEvent) && in.IdempotencyKey != "" {
			prev, ferr := s.store.FindByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
			if ferr == nil && prev != nil {
				return prev.toDTO(), false, nil
			}
		}
		return EventResponse{}, false, ErrInternal("failed to persist attendance")
	}
	return e.toDTO(), true, nil
}

func (s *Service) insert(ctx context.Context, e *Event, idemKey string) error {
	e.idempotencyKey = idemKey
	return s.store.Insert(ctx, e)
}

// Last feeds the client's toggle inference: a null type means no events.
func (s *Service) Last(ctx context.Context, userID string) (LastEventResponse, error) {
	if userID == "" {
		return LastEventResponse{}, ErrInvalid("user is required")
	}
	e, err := s.store.LastFor(ctx, userID)
	if err != nil {
		return LastEventResponse{}, ErrInternal("failed to fetch last attendance")
	}
	if e == nil {
		return LastEventResponse{}, nil
	}
	ts := e.RecordedAt
	return LastEventResponse{Type: &e.Kind, Timestamp: &ts}, nil
}

func (s *Service) ListFor(ctx context.Context, userID string) ([]EventResponse, error) {
	if userID == "" {
		return nil, ErrInvalid("user is required")
	}
	rows, err := s.store.ListFor(ctx, userID)
	if err != nil {
		return nil, ErrInternal("failed to fetch attendance records")
	}
	return toDTOs(rows), nil
}

func (s *Service) ListAll(ctx context.Context) ([]EventResponse, error) {
	rows, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, ErrInternal("failed to fetch attendance records")
	}
	return toDTOs(rows), nil
}

func (s *Service) ListByDate(ctx context.Context, dateStr string) ([]EventResponse, error) {
	day, err := time.ParseInLocation(DateLayout, dateStr, time.UTC)
	if err != nil {
		return nil, ErrInvalid("date must be YYYY-MM-DD")
	}
	rows, err := s.store.ListByDate(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, ErrInternal("failed to fetch attendance records")
	}
	return toDTOs(rows), nil
}

// MonthlySummary counts the distinct days with a check-in as present and
// the remaining calendar days of the month as absent.
func (s *Service) MonthlySummary(ctx context.Context, userID string, year, month int) (MonthlySummaryResponse, error) {
	if userID == "" {
		return MonthlySummaryResponse{}, ErrInvalid("user is required")
	}
	if month < 1 || month > 12 || year < 2000 || year > 2200 {
		return MonthlySummaryResponse{}, ErrInvalid("invalid year or month")
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	totalDays := end.AddDate(0, 0, -1).Day()

	present, err := s.store.CheckInDays(ctx, userID, start, end)
	if err != nil {
		return MonthlySummaryResponse{}, ErrInternal("failed to compute summary")
	}
	return MonthlySummaryResponse{Present: present, Absent: totalDays - present}, nil
}

func (s *Service) AdminSummary(ctx context.Context) (AdminSummaryResponse, error) {
	now := s.clock.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var total, present int64
	count := func(ctx context.Context, st EventStore) error {
		var err error
		if total, err = st.CountEmployees(ctx); err != nil {
			return err
		}
		present, err = st.PresentBetween(ctx, dayStart, dayStart.Add(24*time.Hour))
		return err
	}

	var err error
	if s.conn != nil {
		// Both counts read the same snapshot so the absent figure
		// cannot go negative under concurrent check-ins.
		err = db.ReadOnly(ctx, s.conn, func(ctx context.Context, tx db.DBTX) error {
			return count(ctx, NewStore(tx))
		})
	} else {
		err = count(ctx, s.store)
	}
	if err != nil {
		return AdminSummaryResponse{}, ErrInternal("failed to compute summary")
	}

	return AdminSummaryResponse{
		TotalEmployees: total,
		PresentToday:   present,
		AbsentToday:    total - present,
	}, nil
}

func (s *Service) Recent(ctx context.Context) ([]RecentEntry, error) {
	rows, err := s.store.Recent(ctx, RecentFeedLimit)
	if err != nil {
		return nil, ErrInternal("failed to fetch recent attendance")
	}
	out := make([]RecentEntry, 0, len(rows))
	for _, e := range rows {
		out = append(out, RecentEntry{
			EmployeeName: e.UserName,
			Type:         e.Kind,
			Timestamp:    e.RecordedAt,
		})
	}
	return out, nil
}

// OpenImage resolves a stored capture for serving.
func (s *Service) OpenImage(ref string) (io.ReadCloser, error) {
	rc, err := s.blobs.Open(ref)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, ErrNotFound("image not found")
	}
	if err != nil {
		return nil, ErrInternal("failed to open image")
	}
	return rc, nil
}

func toDTOs(rows []Event) []EventResponse {
	out := make([]EventResponse, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDTO())
	}
	return out
}
