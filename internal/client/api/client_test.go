package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Error(err)
		}
		if body.Email != "a@b.example" || body.Password != "pw" {
			t.Errorf("credentials = %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"tok","userId":"01ABC","role":"employee","name":"Asha"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	s, err := c.Login(context.Background(), "a@b.example", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if s.Token != "tok" || s.UserID != "01ABC" || s.Role != "employee" || s.Name != "Asha" {
		t.Fatalf("session = %+v", s)
	}
}

func TestLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"INVALID_ARGUMENT","message":"invalid credentials"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Login(context.Background(), "a@b.example", "bad")
	if err == nil {
		t.Fatal("want error")
	}
}

func TestSubmitMultipart(t *testing.T) {
	image := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Idempotency-Key"); got != "key-1" {
			t.Errorf("Idempotency-Key = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatal(err)
		}
		if got := r.FormValue("type"); got != "check-in" {
			t.Errorf("type = %q", got)
		}
		if got := r.FormValue("location"); got != "13.0827,80.2707" {
			t.Errorf("location = %q", got)
		}
		f, _, err := r.FormFile("image")
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		buf := make([]byte, 8)
		n, _ := f.Read(buf)
		if n != len(image) {
			t.Errorf("image length = %d, want %d", n, len(image))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"message":"Attendance marked","event":{"event_id":"01EV","type":"check-in","isInOffice":true,"distance_meters":12.5,"timestamp":"2026-06-10T09:00:00Z"}}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL, time.Second).Submit(context.Background(), Session{Token: "tok"}, Submission{
		Kind:           "check-in",
		Location:       "13.0827,80.2707",
		Image:          image,
		IdempotencyKey: "key-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.EventID != "01EV" || !res.IsInOffice || res.DistanceMeters != 12.5 {
		t.Fatalf("event = %+v", res)
	}
}

func TestSubmitAcceptsReplayStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Replays come back 200 instead of 201.
		w.Write([]byte(`{"message":"Attendance marked","event":{"event_id":"01EV","type":"check-in"}}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL, time.Second).Submit(context.Background(), Session{Token: "tok"}, Submission{
		Kind: "check-in", Location: "0,0", Image: []byte{1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.EventID != "01EV" {
		t.Fatalf("event = %+v", res)
	}
}

func TestLastEvent(t *testing.T) {
	cases := []struct {
		name string
		body string
		want *LastEvent
	}{
		{name: "none", body: `{"type":null}`, want: nil},
		{
			name: "check-in",
			body: `{"type":"check-in","timestamp":"2026-06-10T09:00:00Z"}`,
			want: &LastEvent{Type: "check-in", Timestamp: time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/attendance/last" {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			got, err := New(srv.URL, time.Second).LastEvent(context.Background(), Session{Token: "tok"})
			if err != nil {
				t.Fatal(err)
			}
			if tc.want == nil {
				if got != nil {
					t.Fatalf("got %+v, want nil", got)
				}
				return
			}
			if got == nil || got.Type != tc.want.Type || !got.Timestamp.Equal(tc.want.Timestamp) {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestMyHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/attendance/me" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"event_id":"01B","type":"check-out"},{"event_id":"01A","type":"check-in"}]`))
	}))
	defer srv.Close()

	events, err := New(srv.URL, time.Second).MyHistory(context.Background(), Session{Token: "tok"})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].EventID != "01B" || events[1].Type != "check-in" {
		t.Fatalf("events = %+v", events)
	}
}
