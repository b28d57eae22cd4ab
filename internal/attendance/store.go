package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	mysql "github.com/go-sql-driver/mysql"
)

// ErrDuplicateEvent maps the unique (employee, idempotency_key) index.
var ErrDuplicateEvent = errors.New("duplicate attendance event")

type DBTX interface {
	ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, q string, args ...any) *sql.Row
}

type Store struct{ db DBTX }

func NewStore(db DBTX) *Store { return &Store{db: db} }

const selectCols = `
	SELECT e.event_id, e.event_ulid, e.employee_ulid, e.kind,
	       e.latitude, e.longitude, e.image_ref, e.is_in_office, e.distance_m,
	       e.recorded_at, emp.name, emp.email
	FROM attendance_events e
	LEFT JOIN employees emp ON emp.employee_ulid = e.employee_ulid
`

func (s *Store) Insert(ctx context.Context, e *Event) error {
	const q = `
	INSERT INTO attendance_events
	(event_ulid, employee_ulid, kind, latitude, longitude, image_ref, is_in_office, distance_m, idempotency_key, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?)`

	res, err := s.db.ExecContext(ctx, q,
		e.EventULID, e.EmployeeULID, e.Kind,
		e.Latitude, e.Longitude, e.ImageRef,
		e.IsInOffice, e.DistanceM, e.idempotencyKey, e.RecordedAt,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrDuplicateEvent
		}
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		e.EventID = uint64(id)
	}
	return nil
}

func (s *Store) FindByIdempotencyKey(ctx context.Context, employeeULID, key string) (*Event, error) {
	row := s.db.QueryRowContext(ctx, selectCols+`
	WHERE e.employee_ulid = ? AND e.idempotency_key = ?
	LIMIT 1`, employeeULID, key)
	return scanOne(row)
}

func (s *Store) LastFor(ctx context.Context, employeeULID string) (*Event, error) {
	row := s.db.QueryRowContext(ctx, selectCols+`
	WHERE e.employee_ulid = ?
	ORDER BY e.recorded_at DESC, e.event_id DESC
	LIMIT 1`, employeeULID)
	return scanOne(row)
}

func (s *Store) ListFor(ctx context.Context, employeeULID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, selectCols+`
	WHERE e.employee_ulid = ?
	ORDER BY e.recorded_at ASC, e.event_id ASC`, employeeULID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows)
}

func (s *Store) ListAll(ctx context.Context) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, selectCols+`
	ORDER BY e.recorded_at ASC, e.event_id ASC`)
	if err != nil {
		return nil, err
	}
	return scanAll(rows)
}

func (s *Store) ListByDate(ctx context.Context, dayStart, dayEnd time.Time) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, selectCols+`
	WHERE e.recorded_at >= ? AND e.recorded_at < ?
	ORDER BY e.recorded_at ASC, e.event_id ASC`, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	return scanAll(rows)
}

// CheckInDays counts distinct calendar days holding at least one check-in.
func (s *Store) CheckInDays(ctx context.Context, employeeULID string, from, to time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(DISTINCT DATE(recorded_at))
	FROM attendance_events
	WHERE employee_ulid = ? AND kind = ? AND recorded_at >= ? AND recorded_at < ?`,
		employeeULID, KindCheckIn, from, to,
	).Scan(&n)
	return n, err
}

func (s *Store) CountEmployees(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM employees WHERE role = 'employee'`,
	).Scan(&n)
	return n, err
}

func (s *Store) PresentBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(DISTINCT employee_ulid)
	FROM attendance_events
	WHERE kind = ? AND recorded_at >= ? AND recorded_at < ?`,
		KindCheckIn, from, to,
	).Scan(&n)
	return n, err
}

func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = RecentFeedLimit
	}
	rows, err := s.db.QueryContext(ctx, selectCols+`
	ORDER BY e.recorded_at DESC, e.event_id DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanAll(rows)
}

// ===== scan helpers =====

func scanOne(row *sql.Row) (*Event, error) {
	var r eventRow
	err := row.Scan(
		&r.EventID, &r.EventULID, &r.EmployeeULID, &r.Kind,
		&r.Latitude, &r.Longitude, &r.ImageRef, &r.IsInOffice, &r.DistanceM,
		&r.RecordedAt, &r.UserName, &r.UserEmail,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e := r.toModel()
	return &e, nil
}

func scanAll(rows *sql.Rows) ([]Event, error) {
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var r eventRow
		if err := rows.Scan(
			&r.EventID, &r.EventULID, &r.EmployeeULID, &r.Kind,
			&r.Latitude, &r.Longitude, &r.ImageRef, &r.IsInOffice, &r.DistanceM,
			&r.RecordedAt, &r.UserName, &r.UserEmail,
		); err != nil {
			return nil, err
		}
		out = append(out, r.toModel())
	}
	return out, rows.Err()
}
