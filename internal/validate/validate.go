package validate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vuqn/pagepost/internal/model"
)

var photoMimes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/webp": true,
}

var photoExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

var videoMimes = map[string]bool{
	"video/mp4": true,
}

var videoExts = map[string]bool{
	".mp4": true,
}

// Result reports whether a candidate passed validation. Message is set
// only on rejection and is safe to show to the user.
type Result struct {
	OK      bool
	Message string
}

func ok() Result             { return Result{OK: true} }
func fail(msg string) Result { return Result{Message: msg} }

// Prober measures the decoded duration of a video, in seconds.
type Prober interface {
	Duration(ctx context.Context, m model.Media) (float64, error)
}

// Validator runs type, size, and duration checks against a policy.
type Validator struct {
	prober Prober
	log    zerolog.Logger
}

func New(prober Prober, log zerolog.Logger) *Validator {
	return &Validator{prober: prober, log: log}
}

// File checks one candidate. Checks short-circuit in order: type, size,
// duration. A duration probe failure rejects the file.
func (v *Validator) File(ctx context.Context, m model.Media, kind model.MediaKind, pol Policy) Result {
	if r := checkType(m, kind); !r.OK {
		return r
	}
	if pol.MaxSizeBytes > 0 && m.Size > pol.MaxSizeBytes {
		return fail(fmt.Sprintf("File size exceeds the maximum limit of %s", FormatSize(pol.MaxSizeBytes)))
	}
	if kind == model.KindVideo && (pol.MinDuration > 0 || pol.MaxDuration > 0) {
		return v.checkDuration(ctx, m, pol)
	}
	return ok()
}

// Batch validates candidates all-or-nothing: the first rejection fails
// the whole selection.
func (v *Validator) Batch(ctx context.Context, files []model.Media, kind model.MediaKind, pol Policy) Result {
	for _, m := range files {
		if r := v.File(ctx, m, kind, pol); !r.OK {
			return r
		}
	}
	return ok()
}

// checkType accepts a candidate when its MIME type is on the allow-list,
// falling back to the filename extension because browsers and OSes
// sometimes report the wrong MIME type.
func checkType(m model.Media, kind model.MediaKind) Result {
	mimes, exts := photoMimes, photoExts
	msg := "Only PNG, JPG, JPEG, and WEBP files are allowed"
	if kind == model.KindVideo {
		mimes, exts = videoMimes, videoExts
		msg = "Only MP4 video files are allowed"
	}
	if mimes[strings.ToLower(m.MimeType)] {
		return ok()
	}
	if exts[strings.ToLower(filepath.Ext(m.Name))] {
		return ok()
	}
	return fail(msg)
}

func (v *Validator) checkDuration(ctx context.Context, m model.Media, pol Policy) Result {
	d, err := v.prober.Duration(ctx, m)
	if err != nil {
		// fail closed: an unreadable video is an invalid video
		v.log.Warn().Err(err).Str("file", m.Name).Msg("duration probe failed")
		return fail("Could not validate video duration. Please check file format.")
	}
	if pol.MinDuration > 0 && d < pol.MinDuration {
		return fail(fmt.Sprintf("Video is too short. Minimum duration is %s seconds.", trimFloat(pol.MinDuration)))
	}
	if pol.MaxDuration > 0 && d > pol.MaxDuration {
		return fail(fmt.Sprintf("Video is too long. Maximum duration is %s seconds.", trimFloat(pol.MaxDuration)))
	}
	return ok()
}
