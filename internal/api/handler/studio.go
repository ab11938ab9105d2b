package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/service"
)

// defaultMaxImageBytes caps a decoded studio upload when none is configured.
const defaultMaxImageBytes = 20 << 20

// StudioProcessor runs on-demand actions over user images.
type StudioProcessor interface {
	Process(ctx context.Context, req service.StudioRequest) (*service.StudioResult, error)
}

// TrendingReader returns the curated trending lists.
type TrendingReader interface {
	Lists(ctx context.Context) ([]domain.TrendingList, error)
}

// StudioHandler serves the media studio and trending lists.
type StudioHandler struct {
	studio        StudioProcessor
	trending      TrendingReader
	maxImageBytes int64
}

// NewStudioHandler creates a new studio handler. maxImageBytes bounds the
// decoded image; zero uses 20 MiB.
func NewStudioHandler(studio StudioProcessor, trending TrendingReader, maxImageBytes int64) *StudioHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = defaultMaxImageBytes
	}
	return &StudioHandler{studio: studio, trending: trending, maxImageBytes: maxImageBytes}
}

// StudioRequest is the body of Process.
type StudioRequest struct {
	Action      string               `json:"action" binding:"required"`
	ImageBase64 string               `json:"imageBase64" binding:"required"`
	UserID      string               `json:"userId"`
	Params      service.StudioParams `json:"params"`
}

// Process handles POST /api/v1/studio.
func (h *StudioHandler) Process(c *gin.Context) {
	// base64 inflates by 4/3; the rest is room for the JSON envelope.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImageBytes/3*4+64<<10)

	var req StudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "image too large"})
			return
		}
		abortWithError(c, &domain.ValidationError{Field: "body", Message: err.Error()}, "Studio")
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		abortWithError(c, &domain.ValidationError{Field: "imageBase64", Message: "is not valid base64"}, "Studio")
		return
	}
	if int64(len(image)) > h.maxImageBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "image too large"})
		return
	}

	result, err := h.studio.Process(c.Request.Context(), service.StudioRequest{
		Action: service.StudioAction(req.Action),
		Image:  image,
		UserID: req.UserID,
		Params: req.Params,
	})
	if err != nil {
		abortWithError(c, err, "Studio")
		return
	}
	c.JSON(http.StatusOK, result)
}

// TrendingResponse is returned by Trending, keyed by category.
type TrendingResponse struct {
	Categories map[string][]string `json:"categories"`
}

// Trending handles GET /api/v1/trending.
func (h *StudioHandler) Trending(c *gin.Context) {
	lists, err := h.trending.Lists(c.Request.Context())
	if err != nil {
		abortWithError(c, err, "Trending")
		return
	}
	resp := TrendingResponse{Categories: make(map[string][]string, len(lists))}
	for _, l := range lists {
		resp.Categories[l.Category] = l.PostIDs
	}
	c.JSON(http.StatusOK, resp)
}
