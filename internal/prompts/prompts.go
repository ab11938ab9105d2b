package prompts

import (
	"fmt"
	"strings"
)

// ============================================================================
// Research Prompts
// ============================================================================

// researchTemplate asks the grounded model for one shareable finding.
const researchTemplate = `You are a research assistant for a content creator.
Search the web for: "%s"
Find the most interesting, recent, shareable finding about this topic.
Focus on new developments, surprising facts, or practical insights.

Return ONLY valid JSON, no markdown, no backticks:
{
  "headline": "One-line summary",
  "details": "2-3 paragraphs of key facts, data, context. Be specific.",
  "source": "Primary source name",
  "sourceUrl": "URL if available",
  "freshness": "today | this_week | this_month",
  "angle": "What makes this shareable",
  "relatedTopics": ["topic1", "topic2"]
}`

// researchFallbackTemplate is the single-shot variant used without search grounding.
const researchFallbackTemplate = `Generate an interesting, factual insight about: "%s"
Return ONLY JSON: {"headline":"...","details":"...","source":"General knowledge","sourceUrl":"","freshness":"this_month","angle":"...","relatedTopics":[]}`

// Research builds the grounded research prompt.
func Research(topic string) string {
	return fmt.Sprintf(researchTemplate, topic)
}

// ResearchFallback builds the ungrounded research prompt.
func ResearchFallback(topic string) string {
	return fmt.Sprintf(researchFallbackTemplate, topic)
}

// ============================================================================
// Writer Prompt
// ============================================================================

// WriterInput is the research context handed to the writer.
type WriterInput struct {
	Headline string
	Details  string
	Source   string
	Angle    string
}

// writerTemplate asks for post copy, a media directive, and a voice-over script.
// The creator persona is sent separately as the system instruction.
const writerTemplate = `Based on this research, create a social media post.

RESEARCH:
Headline: %s
Details: %s
Source: %s
Angle: %s

Create ALL of the following:

1. POST TEXT: an engaging description (100-300 chars), authentic to your voice.
2. MEDIA DECISION: image or video.
   - image: food shots, landscapes, products, portraits, infographics
   - video: tutorials, dynamic scenes, processes, before/after, time-lapses
3. MEDIA PROMPT: a detailed generation prompt. For images describe composition,
   lighting, colors, mood, camera angle. For videos describe scene, camera
   movement, action, and key moments of a 5-8 second clip.
4. VOICEOVER SCRIPT: 15-30 seconds of natural spoken narration. Use "..." for pauses.
5. METADATA: 2-3 hashtags, categories, an engagement hook.

Return ONLY valid JSON, no markdown, no backticks, no explanation:
{
  "description": "Your post text",
  "hashtags": ["tag1", "tag2"],
  "categories": ["primary_screen", "feed"],
  "engagementHook": "Question or CTA",
  "mediaSpec": {
    "type": "image",
    "prompt": "Detailed generation prompt",
    "negativePrompt": "blurry, text overlay, watermark, low quality",
    "style": "photorealistic",
    "aspectRatio": "9:16",
    "mood": "warm and inviting"
  },
  "voiceoverScript": "Narration text",
  "contentMeta": {
    "topic": "Brief topic label",
    "source": "Source name",
    "factChecked": true,
    "confidence": 0.9
  }
}`

// Writer builds the writer prompt from research context.
func Writer(in WriterInput) string {
	return fmt.Sprintf(writerTemplate,
		strings.TrimSpace(in.Headline),
		strings.TrimSpace(in.Details),
		strings.TrimSpace(in.Source),
		strings.TrimSpace(in.Angle),
	)
}

// ============================================================================
// Media Prompt Modifiers
// ============================================================================

const (
	// PhotorealisticSuffix is appended to image prompts in the photorealistic style.
	PhotorealisticSuffix = ", photorealistic, high resolution, professional photography, sharp focus, beautiful lighting"

	// CinematicSuffix is appended to video prompts in the cinematic style.
	CinematicSuffix = ", cinematic quality, smooth camera movement, professional color grading"

	// LandscapeSuffix reframes a shared prompt for the wide variant.
	LandscapeSuffix = ", wide angle shot, panoramic composition"

	// StillFramePrefix derives an image prompt from a failed video prompt.
	StillFramePrefix = "Cinematic still frame: "

	// OutpaintPortrait extends a user upload into a tall frame.
	OutpaintPortrait = "Extend this image vertically to fill a 9:16 portrait frame. Maintain the original subject and style. Seamless expansion of the environment."

	// OutpaintLandscape extends a user upload into a wide frame.
	OutpaintLandscape = "Extend this image horizontally to fill a 16:9 landscape frame. Maintain the original subject and style. Seamless expansion of the environment."
)

// EmbeddingText builds the text indexed for a published post.
func EmbeddingText(description string, hashtags []string, topic string) string {
	parts := []string{strings.TrimSpace(description)}
	if topic != "" {
		parts = append(parts, "Topic: "+topic)
	}
	if len(hashtags) > 0 {
		parts = append(parts, strings.Join(hashtags, " "))
	}
	return strings.Join(parts, "\n")
}

// ============================================================================
// Studio Prompts
// ============================================================================

// Enhancement modes accepted by the studio.
const (
	EnhanceProfessional = "professional"
	EnhanceHDR          = "hdr"
	EnhancePortrait     = "portrait"
	EnhanceOutpaint     = "outpaint"
)

var enhancePrompts = map[string]string{
	EnhanceProfessional: "Professionally enhance this photo: improve lighting, color balance, sharpness, and overall quality. Make it look like it was taken by a professional photographer.",
	EnhanceHDR:          "Apply HDR processing to this image: expand dynamic range, bring out shadow detail, enhance highlights, vivid colors while maintaining natural look.",
	EnhancePortrait:     "Apply professional portrait mode: create natural background blur (bokeh), enhance skin tones, improve lighting on the subject, studio-quality result.",
	EnhanceOutpaint:     "Extend this image outward in all directions, expanding the scene naturally. Maintain the original subject and style seamlessly.",
}

// Enhance returns the edit prompt for mode and the mode actually used.
// Unknown modes fall back to professional.
func Enhance(mode string) (string, string) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if p, ok := enhancePrompts[mode]; ok {
		return p, mode
	}
	return enhancePrompts[EnhanceProfessional], EnhanceProfessional
}

// Scene places the image's subject into a new environment.
func Scene(scene string) string {
	return fmt.Sprintf("Place the main subject from this image into a new scene: %s. Keep the subject's details, proportions, and identity exactly the same. Only change the background and environment. Professional product photography quality.", strings.TrimSpace(scene))
}

// Style restyles the image while keeping its composition.
func Style(style string) string {
	return fmt.Sprintf("Transform this image with the following artistic style: %s. Maintain the composition and subject but apply the style consistently.", strings.TrimSpace(style))
}

// DefaultMotion is the camera direction used when a photo-to-video request names none.
const DefaultMotion = "Slow cinematic camera movement"

// PhotoToVideo builds the prompt that animates a still.
func PhotoToVideo(motion, custom string) string {
	motion = strings.TrimSpace(motion)
	if motion == "" {
		motion = DefaultMotion
	}
	parts := []string{strings.TrimSuffix(motion, ".") + "."}
	if custom = strings.TrimSpace(custom); custom != "" {
		parts = append(parts, strings.TrimSuffix(custom, ".")+".")
	}
	parts = append(parts, "High quality, smooth motion, professional video.")
	return strings.Join(parts, " ")
}
