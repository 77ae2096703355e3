package model

import "io"

// TaskStatus mirrors the status values the publishing backend reports.
type TaskStatus string

const (
	StatusInProgress TaskStatus = "in_progress"
	StatusSuccess    TaskStatus = "success"
	StatusError      TaskStatus = "error"
	StatusRetry      TaskStatus = "retry"
)

// Terminal reports whether the backend is done with a task in this status.
func (s TaskStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

// ContentType identifies which publishing endpoint a submission targets.
type ContentType string

const (
	ContentFeed       ContentType = "feed"
	ContentStoryPhoto ContentType = "story-photo"
	ContentStoryVideo ContentType = "story-video"
	ContentReel       ContentType = "reel"
	ContentVideo      ContentType = "video"
)

// MediaKind distinguishes photo and video handling during validation.
type MediaKind string

const (
	KindPhoto MediaKind = "photo"
	KindVideo MediaKind = "video"
)

// Media is an in-memory file candidate. Open returns a fresh reader over
// the content; callers close what they open.
type Media struct {
	Name     string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// UploadedAsset references a media file persisted by the blob store.
// StoragePath is store-assigned and absolute.
type UploadedAsset struct {
	StoragePath string `json:"storage_path"`
}

// PageResult is the backend's per-destination outcome for a task.
type PageResult struct {
	Status      TaskStatus `json:"status"`
	ContentType string     `json:"content_type,omitempty"`
	PageNames   string     `json:"page_names"`
	PageURL     string     `json:"page_url,omitempty"`
	Msg         string     `json:"msg,omitempty"`
}

// TaskResult is one observation of a task's state, either a simple
// {status, msg} body or a multi-destination page_responses body.
type TaskResult struct {
	TaskID        string       `json:"task_id,omitempty"`
	Status        TaskStatus   `json:"status,omitempty"`
	Msg           string       `json:"msg,omitempty"`
	PageResponses []PageResult `json:"page_responses,omitempty"`
}

// Terminal reports whether no further state changes are expected.
// A page_responses body is terminal once every destination has settled.
func (r TaskResult) Terminal() bool {
	if len(r.PageResponses) > 0 {
		for _, p := range r.PageResponses {
			if !p.Status.Terminal() {
				return false
			}
		}
		return true
	}
	return r.Status.Terminal()
}

// Receipt is the backend's acknowledgment of a submission. TaskID is
// generated client-side before the request, so it is set even when the
// backend has not produced any result yet.
type Receipt struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Msg    string `json:"msg"`
}
