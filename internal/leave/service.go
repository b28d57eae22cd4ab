package leave

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	ulid "github.com/oklog/ulid/v2"
	log "github.com/sirupsen/logrus"

	"ATMS-backend/internal/platform/mail"
)

type Service struct {
	store  *Store
	mailer mail.Sender
}

func NewService(conn *sql.DB, mailer mail.Sender) *Service {
	if mailer == nil {
		mailer = mail.Noop{}
	}
	return &Service{store: NewStore(conn), mailer: mailer}
}

func (s *Service) Submit(ctx context.Context, userID string, in SubmitRequest) (LeaveResponse, error) {
	if userID == "" {
		return LeaveResponse{}, NewInvalidArgumentError("user is required")
	}
	from, err := time.ParseInLocation(DateLayout, in.From, time.UTC)
	if err != nil {
		return LeaveResponse{}, NewInvalidArgumentError("from must be YYYY-MM-DD")
	}
	to, err := time.ParseInLocation(DateLayout, in.To, time.UTC)
	if err != nil {
		return LeaveResponse{}, NewInvalidArgumentError("to must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return LeaveResponse{}, NewInvalidArgumentError("to must be >= from")
	}

	now := time.Now().UTC()
	l := &Leave{
		LeaveULID:    ulid.MustNew(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0)).String(),
		EmployeeULID: userID,
		LeaveType:    in.Type,
		FromDate:     in.From,
		ToDate:       in.To,
		Reason:       in.Reason,
		Status:       StatusPending,
		CreatedAt:    now,
	}
	if err := s.store.Insert(ctx, l); err != nil {
		return LeaveResponse{}, NewInternalError("failed to save leave request")
	}
	return l.toDTO(), nil
}

func (s *Service) ListFor(ctx context.Context, userID string) ([]LeaveResponse, error) {
	rows, err := s.store.ListFor(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to fetch leave requests")
	}
	return toDTOs(rows), nil
}

// ListAll optionally filters by status ("" means everything).
func (s *Service) ListAll(ctx context.Context, status string) ([]LeaveResponse, error) {
	if status != "" && status != StatusPending && status != StatusApproved && status != StatusRejected {
		return nil, NewInvalidArgumentError("unknown status filter")
	}
	rows, err := s.store.ListAll(ctx, status)
	if err != nil {
		return nil, NewInternalError("failed to fetch leave requests")
	}
	return toDTOs(rows), nil
}

// Decide resolves a pending request. Deciding an already-decided request
// conflicts; the first decision wins. The notification mail is
// best-effort and never fails the decision.
func (s *Service) Decide(ctx context.Context, leaveULID, adminID string, in DecisionRequest) (LeaveResponse, error) {
	if in.Status != StatusApproved && in.Status != StatusRejected {
		return LeaveResponse{}, NewInvalidArgumentError("status must be approved or rejected")
	}

	l, err := s.store.Get(ctx, leaveULID)
	if err != nil {
		return LeaveResponse{}, NewInternalError("failed to fetch leave request")
	}
	if l == nil {
		return LeaveResponse{}, NewNotFoundError("leave request not found")
	}
	if l.Status != StatusPending {
		return LeaveResponse{}, NewConflictError("leave request already decided")
	}

	now := time.Now().UTC()
	n, err := s.store.Decide(ctx, leaveULID, in.Status, in.Note, adminID, now)
	if err != nil {
		return LeaveResponse{}, NewInternalError("failed to update leave request")
	}
	if n == 0 {
		// Lost the race against another admin.
		return LeaveResponse{}, NewConflictError("leave request already decided")
	}

	l.Status = in.Status
	l.Note = in.Note
	l.DecidedBy = adminID
	l.DecidedAt = &now

	if l.EmployeeEmail != "" {
		go s.notify(*l)
	}
	return l.toDTO(), nil
}

func (s *Service) notify(l Leave) {
	subject := fmt.Sprintf("Leave request %s", l.Status)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your %s leave request (%s to %s) was <b>%s</b>.</p><p>%s</p>",
		l.EmployeeName, l.LeaveType, l.FromDate, l.ToDate, l.Status, l.Note,
	)
	if err := s.mailer.Send(l.EmployeeEmail, subject, body); err != nil {
		log.WithField("leave", l.LeaveULID).Warnf("decision mail not delivered: %v", err)
	}
}

func toDTOs(rows []Leave) []LeaveResponse {
	out := make([]LeaveResponse, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDTO())
	}
	return out
}
