package geofence

import (
	"errors"
	"math"
	"testing"
)

func TestParsePoint(t *testing.T) {
	cases := []struct {
		in      string
		want    Point
		wantErr bool
	}{
		{in: "13.0827,80.2707", want: Point{13.0827, 80.2707}},
		{in: "-33.86,151.21", want: Point{-33.86, 151.21}},
		{in: "0,0", want: Point{0, 0}},
		{in: "13.0827", wantErr: true},
		{in: "13.0827,80.2707,12", wantErr: true},
		{in: "abc,80.2707", wantErr: true},
		{in: "13.0827,def", wantErr: true},
		{in: "91,0", wantErr: true},
		{in: "0,181", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParsePoint(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidCoordinates) {
				t.Errorf("ParsePoint(%q) err = %v, want ErrInvalidCoordinates", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePoint(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParsePoint(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestDistanceProperties(t *testing.T) {
	a := Point{13.0827, 80.2707}
	b := Point{13.0872, 80.2707}

	if d := Distance(a, a); d != 0 {
		t.Errorf("Distance(a,a) = %v, want 0", d)
	}
	if d1, d2 := Distance(a, b), Distance(b, a); d1 != d2 {
		t.Errorf("Distance not symmetric: %v vs %v", d1, d2)
	}

	// 0.0045 deg of latitude is roughly 500 m.
	d := Distance(a, b)
	if d < 450 || d > 550 {
		t.Errorf("Distance(a,b) = %v, want ~500m", d)
	}
}

func TestEvaluateBoundaryInclusive(t *testing.T) {
	office := Point{13.0827, 80.2707}
	p := Point{13.0872, 80.2707}
	d := Distance(p, office)

	cfg := Config{Office: office, RadiusMeters: d}
	res := Evaluate(p, cfg)
	if !res.IsInOffice {
		t.Errorf("distance == radius must be in office, got %+v", res)
	}

	cfg.RadiusMeters = math.Nextafter(d, 0)
	if res := Evaluate(p, cfg); res.IsInOffice {
		t.Errorf("distance > radius must be out of office, got %+v", res)
	}
}

func TestEvaluateSamePoint(t *testing.T) {
	office := Point{13.0827, 80.2707}
	cfg := Config{Office: office, RadiusMeters: 100}

	res := Evaluate(office, cfg)
	if !res.IsInOffice {
		t.Fatalf("same point must be in office: %+v", res)
	}
	if res.DistanceMeters > 0.01 {
		t.Fatalf("same point distance = %v, want ~0", res.DistanceMeters)
	}
}

func TestEvaluateOutside(t *testing.T) {
	cfg := Config{Office: Point{13.0827, 80.2707}, RadiusMeters: 100}
	res := Evaluate(Point{13.0872, 80.2707}, cfg)
	if res.IsInOffice {
		t.Fatalf("~500m away with 100m radius must be out of office: %+v", res)
	}
}
