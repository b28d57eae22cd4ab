package users

import (
	"context"
	"database/sql"
	"errors"

	"ATMS-backend/internal/platform/db"
)

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

// EmailTaken checks employees and pending_employees in one pass, so a
// pending registration blocks a second one for the same address.
func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
	SELECT 1 FROM (
		SELECT email FROM employees WHERE email = ?
		UNION ALL
		SELECT email FROM pending_employees WHERE email = ?
	) t LIMIT 1`, email, email).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) InsertPending(ctx context.Context, p *Pending) error {
	const q = `
	INSERT INTO pending_employees
	(pending_ulid, name, email, password_hash, phone, position, company, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		p.ULID, p.Name, p.Email, p.PasswordHash, p.Phone, p.Position, p.Company, p.CreatedAt)
	return err
}

func (s *Store) ListPending(ctx context.Context) ([]Pending, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT pending_ulid, name, email, password_hash, phone, position, company, created_at
	FROM pending_employees
	ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Pending
	for rows.Next() {
		var p Pending
		if err := rows.Scan(&p.ULID, &p.Name, &p.Email, &p.PasswordHash,
			&p.Phone, &p.Position, &p.Company, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPending(ctx context.Context, id string) (*Pending, error) {
	var p Pending
	err := s.db.QueryRowContext(ctx, `
	SELECT pending_ulid, name, email, password_hash, phone, position, company, created_at
	FROM pending_employees
	WHERE pending_ulid = ?`, id).Scan(
		&p.ULID, &p.Name, &p.Email, &p.PasswordHash,
		&p.Phone, &p.Position, &p.Company, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) DeletePending(ctx context.Context, tx db.DBTX, id string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM pending_employees WHERE pending_ulid = ?`, id)
	return err
}

func (s *Store) InsertEmployee(ctx context.Context, tx db.DBTX, e *Employee) error {
	const q = `
	INSERT INTO employees
	(employee_ulid, name, email, password_hash, phone, position, company, role, salary, is_disabled, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		e.ULID, e.Name, e.Email, e.PasswordHash, e.Phone, e.Position, e.Company,
		e.Role, e.Salary, e.CreatedAt, e.UpdatedAt)
	return err
}

const employeeCols = `
	SELECT employee_ulid, name, email, password_hash, phone, position, company, role, salary, created_at, updated_at
	FROM employees
`

func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.db.QueryContext(ctx, employeeCols+` ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	row := s.db.QueryRowContext(ctx, employeeCols+` WHERE employee_ulid = ?`, id)
	e, err := scanEmployee(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, e *Employee) error {
	const q = `
	UPDATE employees
	SET name = ?, email = ?, password_hash = ?, phone = ?, position = ?, company = ?, updated_at = ?
	WHERE employee_ulid = ?`
	_, err := s.db.ExecContext(ctx, q,
		e.Name, e.Email, e.PasswordHash, e.Phone, e.Position, e.Company, e.UpdatedAt, e.ULID)
	return err
}

func (s *Store) UpdateSalary(ctx context.Context, id string, salary float64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE employees SET salary = ?, updated_at = UTC_TIMESTAMP(6) WHERE employee_ulid = ?`,
		salary, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanEmployee(scan func(...any) error) (Employee, error) {
	var e Employee
	var salary sql.NullFloat64
	err := scan(&e.ULID, &e.Name, &e.Email, &e.PasswordHash, &e.Phone,
		&e.Position, &e.Company, &e.Role, &salary, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Employee{}, err
	}
	if salary.Valid {
		e.Salary = &salary.Float64
	}
	return e, nil
}
