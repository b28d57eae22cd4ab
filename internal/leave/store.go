package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type DBTX interface {
	ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, q string, args ...any) *sql.Row
}

type Store struct{ db DBTX }

func NewStore(db DBTX) *Store { return &Store{db: db} }

const selectCols = `
	SELECT l.leave_id, l.leave_ulid, l.employee_ulid, emp.name, emp.email,
	       l.leave_type, DATE_FORMAT(l.from_date, '%Y-%m-%d'), DATE_FORMAT(l.to_date, '%Y-%m-%d'),
	       l.reason, l.status, l.decision_note, l.decided_by, l.decided_at, l.created_at
	FROM leave_requests l
	LEFT JOIN employees emp ON emp.employee_ulid = l.employee_ulid
`

func (s *Store) Insert(ctx context.Context, l *Leave) error {
	const q = `
	INSERT INTO leave_requests
	(leave_ulid, employee_ulid, leave_type, from_date, to_date, reason, status, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		l.LeaveULID, l.EmployeeULID, l.LeaveType, l.FromDate, l.ToDate, l.Reason, l.Status, l.CreatedAt)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		l.LeaveID = uint64(id)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, leaveULID string) (*Leave, error) {
	row := s.db.QueryRowContext(ctx, selectCols+` WHERE l.leave_ulid = ?`, leaveULID)
	var r leaveRow
	err := row.Scan(
		&r.LeaveID, &r.LeaveULID, &r.EmployeeULID, &r.EmployeeName, &r.EmployeeEmail,
		&r.LeaveType, &r.FromDate, &r.ToDate,
		&r.Reason, &r.Status, &r.Note, &r.DecidedBy, &r.DecidedAt, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l := r.toModel()
	return &l, nil
}

func (s *Store) ListFor(ctx context.Context, employeeULID string) ([]Leave, error) {
	rows, err := s.db.QueryContext(ctx, selectCols+`
	WHERE l.employee_ulid = ?
	ORDER BY l.created_at DESC, l.leave_id DESC`, employeeULID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows)
}

func (s *Store) ListAll(ctx context.Context, status string) ([]Leave, error) {
	q := selectCols
	var args []any
	if status != "" {
		q += ` WHERE l.status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY l.created_at DESC, l.leave_id DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanAll(rows)
}

// Decide flips a pending row; the status guard makes the first decision
// win without a transaction.
func (s *Store) Decide(ctx context.Context, leaveULID, status, note, decidedBy string, decidedAt time.Time) (int64, error) {
	const q = `
	UPDATE leave_requests
	SET status = ?, decision_note = NULLIF(?, ''), decided_by = ?, decided_at = ?
	WHERE leave_ulid = ? AND status = ?`
	res, err := s.db.ExecContext(ctx, q, status, note, decidedBy, decidedAt, leaveULID, StatusPending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanAll(rows *sql.Rows) ([]Leave, error) {
	defer rows.Close()

	var out []Leave
	for rows.Next() {
		var r leaveRow
		if err := rows.Scan(
			&r.LeaveID, &r.LeaveULID, &r.EmployeeULID, &r.EmployeeName, &r.EmployeeEmail,
			&r.LeaveType, &r.FromDate, &r.ToDate,
			&r.Reason, &r.Status, &r.Note, &r.DecidedBy, &r.DecidedAt, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r.toModel())
	}
	return out, rows.Err()
}
