package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDisabled           = errors.New("account disabled")
)

type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Name   string `json:"name"`
}

type Service struct {
	store  AccountStore
	secret []byte
	ttl    time.Duration
}

func NewService(db *sql.DB, secret []byte, ttl time.Duration) *Service {
	return &Service{store: NewStore(db), secret: secret, ttl: ttl}
}

// Login checks the password against the employees table and signs a token
// carrying sub/role/name, the same claims the clients read back.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	acc, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, err
	}
	if acc == nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if acc.IsDisabled {
		return LoginResult{}, ErrDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  acc.ID,
		"role": acc.Role,
		"name": acc.Name,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{Token: token, UserID: acc.ID, Role: acc.Role, Name: acc.Name}, nil
}
