package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Event kinds accepted by the attendance write endpoint.
const (
	KindCheckIn  = "check-in"
	KindCheckOut = "check-out"
)

// Session is the explicit identity for every authenticated call; there
// is no ambient token storage.
type Session struct {
	Token  string
	UserID string
	Role   string
	Name   string
}

type Client struct {
	base string
	http *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error_  string `json:"error"`
}

func (e apiError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error_
}

func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return Session{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/v1/login", bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var res struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
		Role   string `json:"role"`
		Name   string `json:"name"`
	}
	if err := c.do(req, http.StatusOK, &res); err != nil {
		return Session{}, err
	}
	return Session{Token: res.Token, UserID: res.UserID, Role: res.Role, Name: res.Name}, nil
}

// Submission is the composite attendance upload: event kind, the
// "lat,lon" wire location, and the compressed JPEG.
type Submission struct {
	Kind           string
	Location       string
	Image          []byte
	IdempotencyKey string
}

type SubmittedEvent struct {
	EventID        string    `json:"event_id"`
	Type           string    `json:"type"`
	Location       string    `json:"location"`
	Image          string    `json:"image"`
	IsInOffice     bool      `json:"isInOffice"`
	DistanceMeters float64   `json:"distance_meters"`
	Timestamp      time.Time `json:"timestamp"`
}

func (c *Client) Submit(ctx context.Context, s Session, sub Submission) (SubmittedEvent, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("type", sub.Kind); err != nil {
		return SubmittedEvent{}, err
	}
	if err := mw.WriteField("location", sub.Location); err != nil {
		return SubmittedEvent{}, err
	}
	fw, err := mw.CreateFormFile("image", "attendance.jpg")
	if err != nil {
		return SubmittedEvent{}, err
	}
	if _, err := fw.Write(sub.Image); err != nil {
		return SubmittedEvent{}, err
	}
	if err := mw.Close(); err != nil {
		return SubmittedEvent{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/v1/attendance", &buf)
	if err != nil {
		return SubmittedEvent{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.Token)
	if sub.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", sub.IdempotencyKey)
	}

	var res struct {
		Message string         `json:"message"`
		Event   SubmittedEvent `json:"event"`
	}
	// 201 on a fresh write, 200 on an idempotent replay.
	if err := c.do(req, 0, &res); err != nil {
		return SubmittedEvent{}, err
	}
	return res.Event, nil
}

// LastEvent returns nil when the user has no events yet (the server's
// null-type sentinel).
type LastEvent struct {
	Type      string
	Timestamp time.Time
}

func (c *Client) LastEvent(ctx context.Context, s Session) (*LastEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/v1/attendance/last", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)

	var res struct {
		Type      *string    `json:"type"`
		Timestamp *time.Time `json:"timestamp"`
	}
	if err := c.do(req, http.StatusOK, &res); err != nil {
		return nil, err
	}
	if res.Type == nil {
		return nil, nil
	}
	last := &LastEvent{Type: *res.Type}
	if res.Timestamp != nil {
		last.Timestamp = *res.Timestamp
	}
	return last, nil
}

type HistoryEvent struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	Location   string    `json:"location"`
	Image      string    `json:"image"`
	IsInOffice bool      `json:"isInOffice"`
	Timestamp  time.Time `json:"timestamp"`
}

func (c *Client) MyHistory(ctx context.Context, s Session) ([]HistoryEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/v1/attendance/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)

	var res []HistoryEvent
	if err := c.do(req, http.StatusOK, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// do sends the request and decodes the JSON body into out. wantStatus 0
// accepts any 2xx.
func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	ok := resp.StatusCode == wantStatus
	if wantStatus == 0 {
		ok = resp.StatusCode >= 200 && resp.StatusCode < 300
	}
	if !ok {
		var ae apiError
		if json.Unmarshal(body, &ae) == nil && ae.text() != "" {
			return fmt.Errorf("%s %s: %s (HTTP %d)", req.Method, req.URL.Path, ae.text(), resp.StatusCode)
		}
		return fmt.Errorf("%s %s: HTTP %d", req.Method, req.URL.Path, resp.StatusCode)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}
