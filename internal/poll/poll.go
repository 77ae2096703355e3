package poll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vuqn/pagepost/internal/model"
)

// ErrTaskNotFound means the backend has no record of the task id.
var ErrTaskNotFound = errors.New("task not found")

// Update is one observation delivered by Watch. Exactly one of Result
// or Err is meaningful per update; a transport error does not end the
// watch.
type Update struct {
	Result model.TaskResult
	Err    error
}

// Poller reads task results from the backend. A single Fetch maps the
// backend's status codes onto the result lifecycle; Watch repeats Fetch
// on a fixed interval until the task settles or the context is
// cancelled. Stopping on a terminal result is a deliberate change from
// polling forever: the result cannot change once every destination has
// settled.
type Poller struct {
	base     string
	client   *http.Client
	interval time.Duration
	log      zerolog.Logger
}

func New(baseURL string, interval, timeout time.Duration, log zerolog.Logger) *Poller {
	return &Poller{
		base:     strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		interval: interval,
		log:      log,
	}
}

// Fetch performs one poll. 404 maps to ErrTaskNotFound; 202 with an
// in_progress body stays non-terminal; any other 2xx returns the body
// as-is, simple or multi-destination.
func (p *Poller) Fetch(ctx context.Context, taskID string) (model.TaskResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+"/results/"+taskID, nil)
	if err != nil {
		return model.TaskResult{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return model.TaskResult{}, fmt.Errorf("fetch results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return model.TaskResult{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.TaskResult{}, fmt.Errorf("fetch results: backend returned %d", resp.StatusCode)
	}

	var result model.TaskResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.TaskResult{}, fmt.Errorf("fetch results: decode: %w", err)
	}
	result.TaskID = taskID
	return result, nil
}

// Watch polls until the result is terminal or ctx is cancelled, sending
// every observation on the returned channel. The channel is closed when
// the watch ends. An unknown task id ends the watch; transport errors
// are reported and polling continues.
func (p *Poller) Watch(ctx context.Context, taskID string) <-chan Update {
	updates := make(chan Update)
	go func() {
		defer close(updates)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			result, err := p.Fetch(ctx, taskID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				select {
				case updates <- Update{Err: err}:
				case <-ctx.Done():
					return
				}
				if errors.Is(err, ErrTaskNotFound) {
					return
				}
			} else {
				select {
				case updates <- Update{Result: result}:
				case <-ctx.Done():
					return
				}
				if result.Terminal() {
					p.log.Debug().Str("task_id", taskID).Str("status", string(result.Status)).Msg("watch settled")
					return
				}
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return updates
}
