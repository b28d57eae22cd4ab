package leave

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	DateLayout = "2006-01-02"
)

type SubmitRequest struct {
	Type   string `json:"type" binding:"required"`
	From   string `json:"from" binding:"required"` // YYYY-MM-DD
	To     string `json:"to" binding:"required"`   // YYYY-MM-DD
	Reason string `json:"reason" binding:"required"`
}

type DecisionRequest struct {
	Status string `json:"status" binding:"required"` // approved | rejected
	Note   string `json:"note,omitempty"`
}

type LeaveResponse struct {
	LeaveID      string     `json:"leave_id"`
	UserID       string     `json:"user_id"`
	EmployeeName string     `json:"employeeName,omitempty"`
	Type         string     `json:"type"`
	From         string     `json:"from"`
	To           string     `json:"to"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	Note         string     `json:"note,omitempty"`
	DecidedBy    string     `json:"decided_by,omitempty"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
