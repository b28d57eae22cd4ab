package camera

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// ExecDevice drives an external still-capture helper (fswebcam,
// libcamera-still, ffmpeg, ...) that writes one JPEG to stdout per
// invocation. Kiosk deployments pick the helper in the client config.
type ExecDevice struct {
	Path string
	Args []string
}

func (d *ExecDevice) Open(ctx context.Context) error {
	if d.Path == "" {
		return fmt.Errorf("no capture command configured")
	}
	if _, err := exec.LookPath(d.Path); err != nil {
		return err
	}
	return nil
}

func (d *ExecDevice) Grab(ctx context.Context) ([]byte, error) {
	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.Path, d.Args...)
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %v (%s)", d.Path, err, bytes.TrimSpace(stderr.Bytes()))
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("%s produced no frame", d.Path)
	}
	return out.Bytes(), nil
}

func (d *ExecDevice) Close() error { return nil }
