package attendance

import (
	"database/sql"
	"fmt"
	"time"
)

// DB row (scan target).
type eventRow struct {
	EventID      uint64
	EventULID    string
	EmployeeULID string
	Kind         string
	Latitude     float64
	Longitude    float64
	ImageRef     string
	IsInOffice   bool
	DistanceM    float64
	RecordedAt   time.Time
	UserName     sql.NullString
	UserEmail    sql.NullString
}

// Service/store model.
type Event struct {
	EventID      uint64
	EventULID    string
	EmployeeULID string
	Kind         string
	Latitude     float64
	Longitude    float64
	ImageRef     string
	IsInOffice   bool
	DistanceM    float64
	RecordedAt   time.Time
	UserName     string
	UserEmail    string

	// set only on the insert path, never read back
	idempotencyKey string
}

func (r eventRow) toModel() Event {
	return Event{
		EventID:      r.EventID,
		EventULID:    r.EventULID,
		EmployeeULID: r.EmployeeULID,
		Kind:         r.Kind,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		ImageRef:     r.ImageRef,
		IsInOffice:   r.IsInOffice,
		DistanceM:    r.DistanceM,
		RecordedAt:   r.RecordedAt.UTC(),
		UserName:     r.UserName.String,
		UserEmail:    r.UserEmail.String,
	}
}

func (e Event) toDTO() EventResponse {
	res := EventResponse{
		EventID:        e.EventULID,
		UserID:         e.EmployeeULID,
		Type:           e.Kind,
		Location:       fmt.Sprintf("%v,%v", e.Latitude, e.Longitude),
		Latitude:       e.Latitude,
		Longitude:      e.Longitude,
		Image:          e.ImageRef,
		IsInOffice:     e.IsInOffice,
		DistanceMeters: e.DistanceM,
		Timestamp:      e.RecordedAt,
	}
	if e.UserName != "" || e.UserEmail != "" {
		res.User = &UserRef{Name: e.UserName, Email: e.UserEmail}
	}
	return res
}
