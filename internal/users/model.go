package users

import "time"

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

type Pending struct {
	ULID         string
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Position     string
	Company      string
	CreatedAt    time.Time
}

type Employee struct {
	ULID         string
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Position     string
	Company      string
	Role         string
	Salary       *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p Pending) toDTO() PendingResponse {
	return PendingResponse{
		ID:        p.ULID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		Position:  p.Position,
		Company:   p.Company,
		CreatedAt: p.CreatedAt,
	}
}

func (e Employee) toDTO() EmployeeResponse {
	return EmployeeResponse{
		ID:        e.ULID,
		Name:      e.Name,
		Email:     e.Email,
		Phone:     e.Phone,
		Position:  e.Position,
		Company:   e.Company,
		Role:      e.Role,
		Salary:    e.Salary,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
