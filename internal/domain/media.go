package domain

// Content types of generated artifacts.
const (
	ContentTypePNG  = "image/png"
	ContentTypeMP4  = "video/mp4"
	ContentTypeMPEG = "audio/mpeg"
)

// MediaArtifact is a generated binary payload.
// StorageKey is set when the provider already wrote the payload to object
// storage; PublicURL is set once the artifact is publicly retrievable.
type MediaArtifact struct {
	Data        []byte
	ContentType string
	Model       string
	AspectRatio string
	StorageKey  string
	PublicURL   string
}

// Extension returns the file extension matching ContentType.
func (a *MediaArtifact) Extension() string {
	switch a.ContentType {
	case ContentTypeMP4:
		return "mp4"
	case ContentTypeMPEG:
		return "mp3"
	default:
		return "png"
	}
}

// Variant names a dual-ratio output.
type Variant string

const (
	VariantPortrait  Variant = "portrait"
	VariantLandscape Variant = "landscape"
)

// AspectRatio returns the variant's target aspect ratio.
func (v Variant) AspectRatio() string {
	if v == VariantLandscape {
		return "16:9"
	}
	return "9:16"
}

// DualRatioResult holds the outcome of a portrait/landscape fan-out.
// Primary always points at one of Portrait or Landscape.
type DualRatioResult struct {
	Portrait  *MediaArtifact
	Landscape *MediaArtifact
	Primary   *MediaArtifact
	Errors    map[Variant]error
}

// Upload roles.
const (
	RoleMedia     = "media"
	RolePortrait  = "portrait"
	RoleLandscape = "landscape"
	RoleAudio     = "audio"
)

// UploadResult maps an artifact role to its public URL.
type UploadResult map[string]string

// URL returns the URL for role, or the empty string.
func (u UploadResult) URL(role string) string {
	if u == nil {
		return ""
	}
	return u[role]
}
