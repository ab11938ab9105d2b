package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/agentfeed/internal/logger"
	"github.com/timmy/agentfeed/internal/service"
)

// Regenerator re-renders a post's media.
type Regenerator interface {
	Regenerate(ctx context.Context, postID string) (string, error)
}

// DualRatioProcessor builds ratio variants for user uploads.
type DualRatioProcessor interface {
	Process(ctx context.Context, postID string) (*service.UserMediaResult, error)
}

// PostHandler handles post media operations.
type PostHandler struct {
	regenerator Regenerator
	userMedia   DualRatioProcessor
}

// NewPostHandler creates a new post handler.
func NewPostHandler(regenerator Regenerator, userMedia DualRatioProcessor) *PostHandler {
	return &PostHandler{regenerator: regenerator, userMedia: userMedia}
}

// RegenerateResponse is returned by Regenerate.
type RegenerateResponse struct {
	PostID   string `json:"postId"`
	MediaURL string `json:"mediaUrl"`
}

// Regenerate handles POST /api/v1/posts/:id/regenerate.
func (h *PostHandler) Regenerate(c *gin.Context) {
	id := c.Param("id")
	ctx := logger.SetPostID(c.Request.Context(), id)

	url, err := h.regenerator.Regenerate(ctx, id)
	if err != nil {
		abortWithError(c, err, "Regenerate")
		return
	}
	c.JSON(http.StatusOK, RegenerateResponse{PostID: id, MediaURL: url})
}

// DualRatio handles POST /api/v1/posts/:id/dual-ratio.
func (h *PostHandler) DualRatio(c *gin.Context) {
	id := c.Param("id")
	ctx := logger.SetPostID(c.Request.Context(), id)

	result, err := h.userMedia.Process(ctx, id)
	if err != nil {
		abortWithError(c, err, "Dual-ratio processing")
		return
	}
	c.JSON(http.StatusOK, result)
}
