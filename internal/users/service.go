package users

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"time"

	ulid "github.com/oklog/ulid/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"ATMS-backend/internal/platform/db"
)

// ===== Error model (same shape as attendance) =====
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

func newULID() string {
	now := time.Now().UTC()
	return ulid.MustNew(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0)).String()
}

// ===== Service =====

type Service struct {
	conn  *sql.DB
	store *Store
}

func NewService(conn *sql.DB) *Service {
	return &Service{conn: conn, store: NewStore(conn)}
}

// Register lands in pending_employees; the account exists only after an
// admin approves it.
func (s *Service) Register(ctx context.Context, in RegisterRequest) (PendingResponse, error) {
	taken, err := s.store.EmailTaken(ctx, in.Email)
	if err != nil {
		return PendingResponse{}, ErrInternal("failed to check email")
	}
	if taken {
		return PendingResponse{}, ErrConflict("email already in use or pending approval")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return PendingResponse{}, ErrInternal("failed to hash password")
	}

	p := &Pending{
		ULID:         newULID(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Phone:        in.Phone,
		Position:     in.Position,
		Company:      in.Company,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.InsertPending(ctx, p); err != nil {
		return PendingResponse{}, ErrInternal("failed to save registration")
	}
	return p.toDTO(), nil
}

func (s *Service) ListPending(ctx context.Context) ([]PendingResponse, error) {
	rows, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, ErrInternal("failed to fetch pending users")
	}
	out := make([]PendingResponse, 0, len(rows))
	for _, p := range rows {
		out = append(out, p.toDTO())
	}
	return out, nil
}

// Approve moves a pending registration into employees. Insert and delete
// run in one transaction so a crash cannot leave the user in both tables.
func (s *Service) Approve(ctx context.Context, pendingULID string) (EmployeeResponse, error) {
	p, err := s.store.GetPending(ctx, pendingULID)
	if err != nil {
		return EmployeeResponse{}, ErrInternal("failed to fetch pending user")
	}
	if p == nil {
		return EmployeeResponse{}, ErrNotFound("pending user not found")
	}

	now := time.Now().UTC()
	e := &Employee{
		ULID:         p.ULID,
		Name:         p.Name,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Phone:        p.Phone,
		Position:     p.Position,
		Company:      p.Company,
		Role:         RoleEmployee,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = db.RunInTx(ctx, s.conn, nil, func(ctx context.Context, tx db.DBTX) error {
		if err := s.store.InsertEmployee(ctx, tx, e); err != nil {
			return err
		}
		return s.store.DeletePending(ctx, tx, p.ULID)
	})
	if err != nil {
		return EmployeeResponse{}, ErrInternal("failed to approve user")
	}
	return e.toDTO(), nil
}

func (s *Service) List(ctx context.Context) ([]EmployeeResponse, error) {
	rows, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, ErrInternal("failed to fetch users")
	}
	out := make([]EmployeeResponse, 0, len(rows))
	for _, e := range rows {
		out = append(out, e.toDTO())
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (EmployeeResponse, error) {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return EmployeeResponse{}, ErrInternal("failed to fetch user")
	}
	if e == nil {
		return EmployeeResponse{}, ErrNotFound("user not found")
	}
	return e.toDTO(), nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateRequest) (EmployeeResponse, error) {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return EmployeeResponse{}, ErrInternal("failed to fetch user")
	}
	if e == nil {
		return EmployeeResponse{}, ErrNotFound("user not found")
	}

	if in.Name != nil {
		e.Name = *in.Name
	}
	if in.Email != nil {
		e.Email = *in.Email
	}
	if in.Phone != nil {
		e.Phone = *in.Phone
	}
	if in.Position != nil {
		e.Position = *in.Position
	}
	if in.Company != nil {
		e.Company = *in.Company
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return EmployeeResponse{}, ErrInternal("failed to hash password")
		}
		e.PasswordHash = string(hash)
	}
	e.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateEmployee(ctx, e); err != nil {
		return EmployeeResponse{}, ErrInternal("failed to update user")
	}
	return e.toDTO(), nil
}

func (s *Service) UpdateSalary(ctx context.Context, id string, salary float64) (EmployeeResponse, error) {
	if salary <= 0 {
		return EmployeeResponse{}, ErrInvalid("invalid salary value")
	}
	n, err := s.store.UpdateSalary(ctx, id, salary)
	if err != nil {
		return EmployeeResponse{}, ErrInternal("failed to update salary")
	}
	if n == 0 {
		return EmployeeResponse{}, ErrNotFound("user not found")
	}
	return s.Get(ctx, id)
}

// EnsureAdmin seeds the configured admin account on first boot.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	taken, err := s.store.EmailTaken(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	e := &Employee{
		ULID:         newULID(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Phone:        "-",
		Position:     "Admin",
		Company:      "-",
		Role:         RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.InsertEmployee(ctx, s.conn, e); err != nil {
		return err
	}
	log.Infof("seeded admin account %s", email)
	return nil
}
