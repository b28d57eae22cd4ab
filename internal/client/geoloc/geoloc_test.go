package geoloc

import (
	"context"
	"errors"
	"testing"
)

func TestStaticProvider(t *testing.T) {
	p := Static{Latitude: 13.0827, Longitude: 80.2707}
	s, err := p.AcquireOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.Latitude != 13.0827 || s.Longitude != 80.2707 {
		t.Fatalf("sample = %+v", s)
	}
	if s.AcquiredAt.IsZero() {
		t.Fatal("zero acquisition time")
	}
	if got := s.String(); got != "13.0827,80.2707" {
		t.Fatalf("String() = %q", got)
	}
}

func TestStaticProviderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Static{}).AcquireOnce(ctx); !errors.Is(err, ErrPositionUnavailable) {
		t.Fatalf("err = %v, want ErrPositionUnavailable", err)
	}
}

func TestParseFix(t *testing.T) {
	cases := []struct {
		raw     string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{raw: `{"lat":13.0827,"lon":80.2707}`, lat: 13.0827, lon: 80.2707},
		{raw: "13.0827,80.2707", lat: 13.0827, lon: 80.2707},
		{raw: " -33.86 , 151.21 ", lat: -33.86, lon: 151.21},
		{raw: "", wantErr: true},
		{raw: "nofix", wantErr: true},
		{raw: "1,2,3", wantErr: true},
		{raw: `{"lat":"x"}`, wantErr: true},
	}
	for _, tc := range cases {
		s, err := parseFix(tc.raw)
		if tc.wantErr {
			if !errors.Is(err, ErrPositionUnavailable) {
				t.Errorf("parseFix(%q) err = %v, want ErrPositionUnavailable", tc.raw, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseFix(%q): %v", tc.raw, err)
			continue
		}
		if s.Latitude != tc.lat || s.Longitude != tc.lon {
			t.Errorf("parseFix(%q) = %+v", tc.raw, s)
		}
	}
}

func TestCommandProviderMissingBinary(t *testing.T) {
	p := Command{Path: "/nonexistent/gps-helper"}
	if _, err := p.AcquireOnce(context.Background()); !errors.Is(err, ErrPositionUnavailable) {
		t.Fatalf("err = %v, want ErrPositionUnavailable", err)
	}
}
