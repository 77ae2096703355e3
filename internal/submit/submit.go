package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vuqn/pagepost/internal/model"
)

// ErrInvalid marks a submission rejected before any network call.
var ErrInvalid = errors.New("invalid submission")

// Request carries a validated submission. Asset paths must come from a
// completed upload batch; empty paths are rejected here.
type Request struct {
	ContentType  model.ContentType
	Caption      string
	Photos       []string // feed
	Photo        string   // story-photo
	Video        string   // story-video, reel, video
	Thumbnail    string   // video, optional
	ShareToStory bool     // reel
}

// Submitter posts task payloads to the publishing backend. The task id
// is a v4 UUID generated before the network call, so callers can show a
// results view immediately regardless of backend latency. Uniqueness is
// probabilistic only; nothing server-side guards against a collision.
type Submitter struct {
	base   string
	client *http.Client
	log    zerolog.Logger
	newID  func() string
}

func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Submitter {
	return &Submitter{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
		log:    log,
		newID:  uuid.NewString,
	}
}

type feedPayload struct {
	TaskID  string   `json:"task_id"`
	Caption string   `json:"caption,omitempty"`
	Photos  []string `json:"photos"`
}

type storyPhotoPayload struct {
	TaskID string `json:"task_id"`
	Photo  string `json:"photo"`
}

type storyVideoPayload struct {
	TaskID string `json:"task_id"`
	Video  string `json:"video"`
}

type reelPayload struct {
	TaskID       string `json:"task_id"`
	Caption      string `json:"caption,omitempty"`
	Video        string `json:"video"`
	ShareToStory bool   `json:"share_to_story"`
}

type videoPayload struct {
	TaskID    string `json:"task_id"`
	Caption   string `json:"caption,omitempty"`
	Video     string `json:"video"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Submit posts the request to the endpoint for its content type and
// returns the backend's acknowledgment. A non-2xx response is an error;
// the caller's state is untouched and may be retried as-is. No retry
// happens here.
func (s *Submitter) Submit(ctx context.Context, req Request) (model.Receipt, error) {
	taskID := s.newID()

	endpoint, payload, err := buildPayload(taskID, req)
	if err != nil {
		return model.Receipt{}, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return model.Receipt{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+endpoint, bytes.NewReader(body))
	if err != nil {
		return model.Receipt{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	s.log.Info().Str("task_id", taskID).Str("endpoint", endpoint).Msg("submitting task")
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return model.Receipt{}, fmt.Errorf("submit %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.Receipt{}, fmt.Errorf("submit %s: backend returned %d: %s",
			endpoint, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var ack struct {
		Status string `json:"status"`
		Msg    string `json:"msg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return model.Receipt{}, fmt.Errorf("submit %s: decode ack: %w", endpoint, err)
	}
	return model.Receipt{TaskID: taskID, Status: ack.Status, Msg: ack.Msg}, nil
}

func buildPayload(taskID string, req Request) (string, any, error) {
	switch req.ContentType {
	case model.ContentFeed:
		if len(req.Photos) == 0 {
			return "", nil, fmt.Errorf("%w: feed post requires at least one photo", ErrInvalid)
		}
		if err := requirePaths(req.Photos...); err != nil {
			return "", nil, err
		}
		return "/feed", feedPayload{TaskID: taskID, Caption: req.Caption, Photos: req.Photos}, nil
	case model.ContentStoryPhoto:
		if err := requirePaths(req.Photo); err != nil {
			return "", nil, err
		}
		return "/story/photo", storyPhotoPayload{TaskID: taskID, Photo: req.Photo}, nil
	case model.ContentStoryVideo:
		if err := requirePaths(req.Video); err != nil {
			return "", nil, err
		}
		return "/story/video", storyVideoPayload{TaskID: taskID, Video: req.Video}, nil
	case model.ContentReel:
		if err := requirePaths(req.Video); err != nil {
			return "", nil, err
		}
		return "/reel", reelPayload{TaskID: taskID, Caption: req.Caption, Video: req.Video, ShareToStory: req.ShareToStory}, nil
	case model.ContentVideo:
		if err := requirePaths(req.Video); err != nil {
			return "", nil, err
		}
		return "/video", videoPayload{TaskID: taskID, Caption: req.Caption, Video: req.Video, Thumbnail: req.Thumbnail}, nil
	default:
		return "", nil, fmt.Errorf("%w: unknown content type %q", ErrInvalid, req.ContentType)
	}
}

func requirePaths(paths ...string) error {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: asset path missing, upload must complete before submission", ErrInvalid)
		}
	}
	return nil
}
