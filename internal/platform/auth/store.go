package auth

import (
	"context"
	"database/sql"
	"errors"
)

type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	IsDisabled   bool
}

type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) AccountStore {
	return &Store{db: db}
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*Account, error) {
	const q = `
SELECT employee_ulid, name, email, password_hash, role, is_disabled
FROM employees
WHERE email = ?
LIMIT 1
`
	var a Account
	var isDisabledInt int
	err := s.db.QueryRowContext(ctx, q, email).Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&a.Role,
		&isDisabledInt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if isDisabledInt != 0 {
		a.IsDisabled = true
	}
	return &a, nil
}
