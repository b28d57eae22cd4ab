package geoloc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrPositionUnavailable: no fix could be produced (helper missing,
// denied, or timed out). Submission must not proceed without a sample.
var ErrPositionUnavailable = errors.New("position unavailable")

// Sample is one single-shot fix. It is valid only for the submission
// attempt it was acquired for; callers re-acquire per attempt.
type Sample struct {
	Latitude   float64
	Longitude  float64
	AcquiredAt time.Time
}

// String renders the wire form "<lat>,<lon>".
func (s Sample) String() string {
	return strconv.FormatFloat(s.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(s.Longitude, 'f', -1, 64)
}

// Provider acquires exactly one fix per call; there is no watch mode
// and no caching.
type Provider interface {
	AcquireOnce(ctx context.Context) (Sample, error)
}

// Static returns fixed coordinates, for kiosk terminals mounted at a
// known spot.
type Static struct {
	Latitude  float64
	Longitude float64
}

func (p Static) AcquireOnce(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	return Sample{Latitude: p.Latitude, Longitude: p.Longitude, AcquiredAt: time.Now().UTC()}, nil
}

// Command runs a helper binary (gpspipe-style) expected to print either
// {"lat":..,"lon":..} or a bare "lat,lon" line.
type Command struct {
	Path    string
	Args    []string
	Timeout time.Duration
}

func (p Command) AcquireOnce(ctx context.Context) (Sample, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Path, p.Args...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}

	s, err := parseFix(strings.TrimSpace(out.String()))
	if err != nil {
		return Sample{}, err
	}
	s.AcquiredAt = time.Now().UTC()
	return s, nil
}

func parseFix(raw string) (Sample, error) {
	if raw == "" {
		return Sample{}, fmt.Errorf("%w: empty fix", ErrPositionUnavailable)
	}

	if strings.HasPrefix(raw, "{") {
		var fix struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		}
		if err := json.UnmarshalFromString(raw, &fix); err != nil {
			return Sample{}, fmt.Errorf("%w: bad fix %q", ErrPositionUnavailable, raw)
		}
		return Sample{Latitude: fix.Lat, Longitude: fix.Lon}, nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return Sample{}, fmt.Errorf("%w: bad fix %q", ErrPositionUnavailable, raw)
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return Sample{}, fmt.Errorf("%w: bad fix %q", ErrPositionUnavailable, raw)
	}
	return Sample{Latitude: lat, Longitude: lon}, nil
}
