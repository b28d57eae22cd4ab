package leave

import (
	"database/sql"
	"time"
)

type leaveRow struct {
	LeaveID       uint64
	LeaveULID     string
	EmployeeULID  string
	EmployeeName  sql.NullString
	EmployeeEmail sql.NullString
	LeaveType     string
	FromDate      string
	ToDate        string
	Reason        string
	Status        string
	Note          sql.NullString
	DecidedBy     sql.NullString
	DecidedAt     sql.NullTime
	CreatedAt     time.Time
}

type Leave struct {
	LeaveID       uint64
	LeaveULID     string
	EmployeeULID  string
	EmployeeName  string
	EmployeeEmail string
	LeaveType     string
	FromDate      string
	ToDate        string
	Reason        string
	Status        string
	Note          string
	DecidedBy     string
	DecidedAt     *time.Time
	CreatedAt     time.Time
}

func (r leaveRow) toModel() Leave {
	l := Leave{
		LeaveID:       r.LeaveID,
		LeaveULID:     r.LeaveULID,
		EmployeeULID:  r.EmployeeULID,
		EmployeeName:  r.EmployeeName.String,
		EmployeeEmail: r.EmployeeEmail.String,
		LeaveType:     r.LeaveType,
		FromDate:      r.FromDate,
		ToDate:        r.ToDate,
		Reason:        r.Reason,
		Status:        r.Status,
		Note:          r.Note.String,
		DecidedBy:     r.DecidedBy.String,
		CreatedAt:     r.CreatedAt.UTC(),
	}
	if r.DecidedAt.Valid {
		t := r.DecidedAt.Time.UTC()
		l.DecidedAt = &t
	}
	return l
}

func (l Leave) toDTO() LeaveResponse {
	return LeaveResponse{
		LeaveID:      l.LeaveULID,
		UserID:       l.EmployeeULID,
		EmployeeName: l.EmployeeName,
		Type:         l.LeaveType,
		From:         l.FromDate,
		To:           l.ToDate,
		Reason:       l.Reason,
		Status:       l.Status,
		Note:         l.Note,
		DecidedBy:    l.DecidedBy,
		DecidedAt:    l.DecidedAt,
		CreatedAt:    l.CreatedAt,
	}
}
