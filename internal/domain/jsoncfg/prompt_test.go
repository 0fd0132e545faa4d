package jsoncfg

import "testing"

func TestVideoConfigNormalizeDefaults(t *testing.T) {
	c := &VideoConfig{}
	c.Normalize()

	if c.AspectRatio != DefaultAspectRatio {
		t.Fatalf("AspectRatio = %q, want %q", c.AspectRatio, DefaultAspectRatio)
	}
	if c.SampleCount != DefaultSampleCount {
		t.Fatalf("SampleCount = %d, want %d", c.SampleCount, DefaultSampleCount)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() after Normalize = %v", err)
	}
}

func TestVideoConfigNormalizeClamp(t *testing.T) {
	c := &VideoConfig{SampleCount: 10, AspectRatio: "9:16", Resolution: " 720P "}
	c.Normalize()

	if c.SampleCount != MaxSampleCount {
		t.Fatalf("SampleCount clamp = %d, want %d", c.SampleCount, MaxSampleCount)
	}
	if c.AspectRatio != "9:16" {
		t.Fatalf("AspectRatio should keep explicit value, got %q", c.AspectRatio)
	}
	if c.Resolution != "720p" {
		t.Fatalf("Resolution = %q, want 720p", c.Resolution)
	}
}

func TestVideoConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     VideoConfig
		wantErr bool
	}{
		{name: "defaults", cfg: VideoConfig{AspectRatio: "16:9", SampleCount: 1}},
		{name: "bad aspect", cfg: VideoConfig{AspectRatio: "1:1", SampleCount: 1}, wantErr: true},
		{name: "bad resolution", cfg: VideoConfig{AspectRatio: "16:9", Resolution: "4k", SampleCount: 1}, wantErr: true},
		{name: "portrait 1080p", cfg: VideoConfig{AspectRatio: "9:16", Resolution: "1080p", SampleCount: 1}, wantErr: true},
		{name: "person generation", cfg: VideoConfig{AspectRatio: "16:9", PersonGeneration: "everyone", SampleCount: 1}, wantErr: true},
		{name: "duration", cfg: VideoConfig{AspectRatio: "16:9", SampleCount: 1, DurationSeconds: 120}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeVideoConfig(t *testing.T) {
	cfg, err := DecodeVideoConfig(map[string]any{
		"aspectRatio": "9:16",
		"sampleCount": float64(2),
		"unknown":     true,
	})
	if err != nil {
		t.Fatalf("DecodeVideoConfig() error = %v", err)
	}
	if cfg.AspectRatio != "9:16" || cfg.SampleCount != 2 {
		t.Fatalf("unexpected config %+v", cfg)
	}

	if _, err := DecodeVideoConfig(map[string]any{"sampleCount": "two"}); err == nil {
		t.Fatalf("expected error for non-numeric sampleCount")
	}
}

func TestParsePrompt(t *testing.T) {
	text, extras := ParsePrompt("  A cat in a garden ")
	if text != "A cat in a garden" || extras != nil {
		t.Fatalf("plain prompt = %q %v", text, extras)
	}

	text, extras = ParsePrompt(`{"description":"Sunset over rice fields","aspectRatio":"9:16","nested":{"a":1}}`)
	if text != "Sunset over rice fields" {
		t.Fatalf("json prompt text = %q", text)
	}
	if extras["aspectRatio"] != "9:16" {
		t.Fatalf("extras = %v", extras)
	}
	if _, ok := extras["nested"]; ok {
		t.Fatalf("nested values must be dropped: %v", extras)
	}

	text, extras = ParsePrompt(`{"title":"no text field"}`)
	if text != `{"title":"no text field"}` || extras != nil {
		t.Fatalf("object without prompt should stay verbatim, got %q %v", text, extras)
	}
}
