package holiday

import (
	"context"
	"database/sql"
	"errors"
	"time"

	mysql "github.com/go-sql-driver/mysql"
)

const DateLayout = "2006-01-02"

var (
	ErrExists  = errors.New("holiday already exists for this date")
	ErrInvalid = errors.New("date and name are required")
)

type Holiday struct {
	ID   uint64 `json:"id"`
	Date string `json:"date"` // YYYY-MM-DD
	Name string `json:"name"`
}

type Service struct{ db *sql.DB }

func NewService(db *sql.DB) *Service { return &Service{db: db} }

// List returns the calendar sorted by date, the order the admin page
// renders it in.
func (s *Service) List(ctx context.Context) ([]Holiday, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT holiday_id, DATE_FORMAT(holiday_date, '%Y-%m-%d'), name
	FROM holidays
	ORDER BY holiday_date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Holiday, 0, 16)
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Service) Create(ctx context.Context, date, name string) (Holiday, error) {
	if date == "" || name == "" {
		return Holiday{}, ErrInvalid
	}
	if _, err := time.ParseInLocation(DateLayout, date, time.UTC); err != nil {
		return Holiday{}, ErrInvalid
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO holidays (holiday_date, name) VALUES (?, ?)`, date, name)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return Holiday{}, ErrExists
		}
		return Holiday{}, err
	}

	h := Holiday{Date: date, Name: name}
	if id, err := res.LastInsertId(); err == nil {
		h.ID = uint64(id)
	}
	return h, nil
}
