package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vuqn/pagepost/internal/model"
	"github.com/vuqn/pagepost/internal/poll"
	"github.com/vuqn/pagepost/internal/prefs"
	"github.com/vuqn/pagepost/internal/storage"
	"github.com/vuqn/pagepost/internal/submit"
	"github.com/vuqn/pagepost/internal/uploader"
	"github.com/vuqn/pagepost/internal/validate"
)

// Handler wires the gateway's HTTP surface to the core components.
type Handler struct {
	Validator *validate.Validator
	Policies  validate.Policies
	Uploader  *uploader.Uploader
	Submitter *submit.Submitter
	Poller    *poll.Poller
	Prefs     *prefs.Store
	Log       zerolog.Logger
}

func RegisterHandlers(r *gin.Engine, h *Handler) {
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r.POST("/api/upload", h.upload)
	r.POST("/api/feed", h.submitFeed)
	r.POST("/api/story", h.submitStory)
	r.POST("/api/reel", h.submitReel)
	r.POST("/api/video", h.submitVideo)
	r.GET("/api/results/:taskId", h.results)
	r.GET("/api/settings/language", h.getLanguage)
	r.PUT("/api/settings/language", h.setLanguage)
}

func (h *Handler) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	kind := model.MediaKind(c.PostForm("kind"))
	if kind == "" {
		kind = model.KindPhoto
		if strings.HasPrefix(fh.Header.Get("Content-Type"), "video/") {
			kind = model.KindVideo
		}
	}
	contentType := model.ContentType(c.PostForm("content_type"))

	media := model.Media{
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Open:     func() (io.ReadCloser, error) { return fh.Open() },
	}

	if res := h.Validator.File(c.Request.Context(), media, kind, h.Policies.For(contentType, kind)); !res.OK {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Message})
		return
	}

	assets, err := h.Uploader.Upload(c.Request.Context(), []model.Media{media})
	if err != nil {
		switch {
		case errors.Is(err, uploader.ErrBusy):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, storage.ErrDirNotFound), errors.Is(err, storage.ErrPermission):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file. " + err.Error()})
		default:
			h.Log.Error().Err(err).Msg("upload failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process upload"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "filepath": assets[0].StoragePath})
}

type feedRequest struct {
	Caption string   `json:"caption"`
	Photos  []string `json:"photos" binding:"required"`
}

func (h *Handler) submitFeed(c *gin.Context) {
	var req feedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.doSubmit(c, submit.Request{
		ContentType: model.ContentFeed,
		Caption:     req.Caption,
		Photos:      req.Photos,
	})
}

type storyRequest struct {
	Type  string `json:"type" binding:"required"` // photo | video
	Photo string `json:"photo"`
	Video string `json:"video"`
}

func (h *Handler) submitStory(c *gin.Context) {
	var req storyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	// photo and video stories are mutually exclusive endpoints
	switch req.Type {
	case "photo":
		h.doSubmit(c, submit.Request{ContentType: model.ContentStoryPhoto, Photo: req.Photo})
	case "video":
		h.doSubmit(c, submit.Request{ContentType: model.ContentStoryVideo, Video: req.Video})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "story type must be photo or video"})
	}
}

type reelRequest struct {
	Caption      string `json:"caption"`
	Video        string `json:"video" binding:"required"`
	ShareToStory bool   `json:"share_to_story"`
}

func (h *Handler) submitReel(c *gin.Context) {
	var req reelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.doSubmit(c, submit.Request{
		ContentType:  model.ContentReel,
		Caption:      req.Caption,
		Video:        req.Video,
		ShareToStory: req.ShareToStory,
	})
}

type videoRequest struct {
	Caption   string `json:"caption"`
	Video     string `json:"video" binding:"required"`
	Thumbnail string `json:"thumbnail"`
}

func (h *Handler) submitVideo(c *gin.Context) {
	var req videoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.doSubmit(c, submit.Request{
		ContentType: model.ContentVideo,
		Caption:     req.Caption,
		Video:       req.Video,
		Thumbnail:   req.Thumbnail,
	})
}

func (h *Handler) doSubmit(c *gin.Context, req submit.Request) {
	receipt, err := h.Submitter.Submit(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, submit.ErrInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.Log.Error().Err(err).Str("content_type", string(req.ContentType)).Msg("submission failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (h *Handler) results(c *gin.Context) {
	taskID := c.Param("taskId")
	result, err := h.Poller.Fetch(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, poll.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch result"})
		return
	}
	if !result.Terminal() {
		c.JSON(http.StatusAccepted, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getLanguage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"language": h.Prefs.Language()})
}

type languageRequest struct {
	Language string `json:"language" binding:"required"`
}

func (h *Handler) setLanguage(c *gin.Context) {
	var req languageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.Prefs.SetLanguage(req.Language); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save language"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"language": req.Language})
}
