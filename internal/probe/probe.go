package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vuqn/pagepost/internal/model"
)

// FFProbe measures video duration by shelling out to ffprobe. The media
// content is spilled to a temp file for the probe and removed on every
// exit path.
type FFProbe struct {
	Timeout time.Duration
	TempDir string // "" = os.TempDir()
}

func New(timeout time.Duration) *FFProbe {
	return &FFProbe{Timeout: timeout}
}

func (p *FFProbe) Duration(ctx context.Context, m model.Media) (float64, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	rc, err := m.Open()
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", m.Name, err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(p.TempDir, "probe-*"+filepath.Ext(m.Name))
	if err != nil {
		return 0, fmt.Errorf("probe temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = io.Copy(tmp, rc)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("spill %s: %w", m.Name, err)
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		tmp.Name(),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return 0, fmt.Errorf("ffprobe %s: %s", m.Name, msg)
		}
		return 0, fmt.Errorf("ffprobe %s: %w", m.Name, err)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: bad duration %q", m.Name, strings.TrimSpace(string(out)))
	}
	return d, nil
}
