package prompts

import "testing"

func TestEnhance(t *testing.T) {
	tests := []struct {
		in       string
		wantMode string
	}{
		{"", EnhanceProfessional},
		{"HDR", EnhanceHDR},
		{" portrait ", EnhancePortrait},
		{"vintage", EnhanceProfessional},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			prompt, mode := Enhance(tt.in)
			if mode != tt.wantMode || prompt != enhancePrompts[tt.wantMode] {
				t.Fatalf("Enhance(%q) = (%q, %q), want mode %q", tt.in, prompt, mode, tt.wantMode)
			}
		})
	}
}

func TestPhotoToVideo(t *testing.T) {
	tests := []struct {
		motion, custom, want string
	}{
		{"", "", "Slow cinematic camera movement. High quality, smooth motion, professional video."},
		{"Orbit left.", "steam rising", "Orbit left. steam rising. High quality, smooth motion, professional video."},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := PhotoToVideo(tt.motion, tt.custom); got != tt.want {
				t.Fatalf("PhotoToVideo = %q, want %q", got, tt.want)
			}
		})
	}
}
