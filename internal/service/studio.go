package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/logger"
	"github.com/timmy/agentfeed/internal/prompts"
	"github.com/timmy/agentfeed/internal/provider"
	"github.com/timmy/agentfeed/internal/storage"
)

// StudioAction names an on-demand media transformation.
type StudioAction string

const (
	StudioEnhance StudioAction = "enhance"
	StudioScene   StudioAction = "scene"
	StudioStyle   StudioAction = "style"
	StudioVideo   StudioAction = "video"
)

// StudioParams are the per-action options of a studio request.
type StudioParams struct {
	Mode         string `json:"mode"`
	ScenePrompt  string `json:"scenePrompt"`
	SceneName    string `json:"sceneName"`
	StylePrompt  string `json:"stylePrompt"`
	StyleName    string `json:"styleName"`
	ModePrompt   string `json:"modePrompt"`
	CustomPrompt string `json:"customPrompt"`
	AspectRatio  string `json:"aspectRatio"`
}

// StudioRequest is one studio job over a user-supplied image.
type StudioRequest struct {
	Action StudioAction
	Image  []byte
	UserID string
	Params StudioParams
}

// StudioResult is the published output of a studio job.
type StudioResult struct {
	JobID       string `json:"jobId"`
	ImageURL    string `json:"imageUrl"`
	VideoURL    string `json:"videoUrl,omitempty"`
	ActionLabel string `json:"actionLabel"`
}

// VideoAnimator turns a still into a clip.
type VideoAnimator interface {
	AnimateAndAwait(ctx context.Context, jobID string, image []byte, prompt, aspectRatio string, budget time.Duration) (*domain.MediaArtifact, error)
}

// MediaStudio runs edit and photo-to-video actions on user images and
// publishes the results under user-ai/.
type MediaStudio struct {
	editor      ImageEditor
	video       VideoAnimator
	storage     storage.ObjectStorage
	videoBudget time.Duration
	now         func() time.Time
}

// NewMediaStudio creates the studio. videoBudget bounds the wait for a
// photo-to-video job; zero uses the poller's own cap.
func NewMediaStudio(editor ImageEditor, video VideoAnimator, objectStorage storage.ObjectStorage, videoBudget time.Duration) *MediaStudio {
	return &MediaStudio{
		editor:      editor,
		video:       video,
		storage:     objectStorage,
		videoBudget: videoBudget,
		now:         time.Now,
	}
}

// Process runs one studio action.
// Parameters:
//   - ctx: context for the provider and storage calls.
//   - req: action, source image and options.
//
// Returns:
//   - *StudioResult: public URLs of the outputs.
//   - error: ValidationError for a bad request, otherwise the provider,
//     media generation or storage failure.
func (s *MediaStudio) Process(ctx context.Context, req StudioRequest) (*StudioResult, error) {
	if len(req.Image) == 0 {
		return nil, &domain.ValidationError{Field: "image", Message: "is required"}
	}

	jobID := s.jobID(req.UserID)
	log := logger.FromContext(ctx).WithFields(logger.Fields{
		"job_id": jobID,
		"action": string(req.Action),
	})
	ctx = log.WithContext(ctx)

	var (
		result *StudioResult
		err    error
	)
	switch req.Action {
	case StudioEnhance:
		prompt, mode := prompts.Enhance(req.Params.Mode)
		result, err = s.edit(ctx, jobID, req.Image, prompt, "enhanced", titleWord(mode)+" Enhanced")
	case StudioScene:
		if strings.TrimSpace(req.Params.ScenePrompt) == "" {
			return nil, &domain.ValidationError{Field: "params.scenePrompt", Message: "is required"}
		}
		result, err = s.edit(ctx, jobID, req.Image, prompts.Scene(req.Params.ScenePrompt), "scene",
			"Scene: "+orCustom(req.Params.SceneName))
	case StudioStyle:
		if strings.TrimSpace(req.Params.StylePrompt) == "" {
			return nil, &domain.ValidationError{Field: "params.stylePrompt", Message: "is required"}
		}
		result, err = s.edit(ctx, jobID, req.Image, prompts.Style(req.Params.StylePrompt), "style",
			"Style: "+orCustom(req.Params.StyleName))
	case StudioVideo:
		result, err = s.animate(ctx, jobID, req)
	default:
		return nil, &domain.ValidationError{Field: "action", Message: fmt.Sprintf("unknown action %q", req.Action)}
	}
	if err != nil {
		log.WithError(err).Warn("Studio action failed")
		return nil, err
	}

	log.WithField("image_url", result.ImageURL).Info("Studio action complete")
	return result, nil
}

func (s *MediaStudio) edit(ctx context.Context, jobID string, image []byte, prompt, suffix, label string) (*StudioResult, error) {
	art, err := s.editor.EditImage(ctx, provider.EditRequest{Image: image, Prompt: prompt})
	if err != nil {
		return nil, err
	}
	url, err := storePublic(ctx, s.storage, storage.StudioKey(jobID, suffix, art.Extension()), art, map[string]string{
		"source": "studio",
		"action": suffix,
	})
	if err != nil {
		return nil, err
	}
	return &StudioResult{JobID: jobID, ImageURL: url, ActionLabel: label}, nil
}

// animate renders a clip from the image and publishes the image itself as
// the clip's thumbnail.
func (s *MediaStudio) animate(ctx context.Context, jobID string, req StudioRequest) (*StudioResult, error) {
	mode := strings.TrimSpace(req.Params.Mode)
	if mode == "" {
		mode = "cinematic"
	}
	ratio := domain.VariantPortrait.AspectRatio()
	if req.Params.AspectRatio == domain.VariantLandscape.AspectRatio() {
		ratio = req.Params.AspectRatio
	}

	clip, err := s.video.AnimateAndAwait(ctx, jobID, req.Image,
		prompts.PhotoToVideo(req.Params.ModePrompt, req.Params.CustomPrompt), ratio, s.videoBudget)
	if err != nil {
		return nil, err
	}

	videoURL := clip.PublicURL
	if videoURL == "" {
		videoURL, err = storePublic(ctx, s.storage, storage.StudioKey(jobID, "video", clip.Extension()), clip, map[string]string{
			"source": "studio",
			"action": string(StudioVideo),
		})
		if err != nil {
			return nil, err
		}
	}

	thumb := &domain.MediaArtifact{Data: req.Image, ContentType: domain.ContentTypePNG}
	thumbURL, err := storePublic(ctx, s.storage, storage.StudioKey(jobID, "thumb", thumb.Extension()), thumb, map[string]string{
		"source": "studio",
		"action": "thumb",
	})
	if err != nil {
		return nil, err
	}

	return &StudioResult{
		JobID:       jobID,
		ImageURL:    thumbURL,
		VideoURL:    videoURL,
		ActionLabel: "Video: " + titleWord(mode),
	}, nil
}

// jobID is ai_{user}_{unix ms}; the user part is reduced to key-safe runes.
func (s *MediaStudio) jobID(userID string) string {
	user := strings.Map(func(r rune) rune {
		if r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, userID)
	if user == "" {
		user = "anonymous"
	}
	return fmt.Sprintf("ai_%s_%d", user, s.now().UnixMilli())
}

func titleWord(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func orCustom(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Custom"
	}
	return strings.TrimSpace(name)
}
