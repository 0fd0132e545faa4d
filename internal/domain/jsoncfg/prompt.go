package jsoncfg

import (
	"encoding/json"
	"fmt"
	"strings"
)

// VideoConfig carries the provider knobs accepted on a generation request.
type VideoConfig struct {
	AspectRatio      string `json:"aspectRatio,omitempty"`
	Resolution       string `json:"resolution,omitempty"`
	SampleCount      int    `json:"sampleCount,omitempty"`
	NegativePrompt   string `json:"negativePrompt,omitempty"`
	PersonGeneration string `json:"personGeneration,omitempty"`
	DurationSeconds  int    `json:"durationSeconds,omitempty"`
	Seed             *int64 `json:"seed,omitempty"`
}

var allowedAspectRatios = map[string]struct{}{
	"16:9": {},
	"9:16": {},
}

var allowedResolutions = map[string]struct{}{
	"720p":  {},
	"1080p": {},
}

var allowedPersonGeneration = map[string]struct{}{
	"allow_all":   {},
	"allow_adult": {},
	"dont_allow":  {},
}

const (
	// DefaultAspectRatio is used when the request omits the aspect ratio.
	DefaultAspectRatio = "16:9"
	// DefaultSampleCount is the number of videos requested per job.
	DefaultSampleCount = 1
	// MaxSampleCount caps videos per job.
	MaxSampleCount = 4
	// DefaultDurationSeconds is reported for results that carry no duration.
	DefaultDurationSeconds = 8
)

// Normalize applies defaults and clamps.
func (c *VideoConfig) Normalize() {
	if c == nil {
		return
	}
	c.AspectRatio = strings.TrimSpace(c.AspectRatio)
	if c.AspectRatio == "" {
		c.AspectRatio = DefaultAspectRatio
	}
	c.Resolution = strings.ToLower(strings.TrimSpace(c.Resolution))
	if c.SampleCount <= 0 {
		c.SampleCount = DefaultSampleCount
	}
	if c.SampleCount > MaxSampleCount {
		c.SampleCount = MaxSampleCount
	}
	c.PersonGeneration = strings.ToLower(strings.TrimSpace(c.PersonGeneration))
}

// Validate ensures the config can be sent to the provider.
func (c VideoConfig) Validate() error {
	if _, ok := allowedAspectRatios[c.AspectRatio]; !ok {
		return fmt.Errorf("aspectRatio must be one of 16:9, 9:16")
	}
	if c.Resolution != "" {
		if _, ok := allowedResolutions[c.Resolution]; !ok {
			return fmt.Errorf("resolution must be one of 720p, 1080p")
		}
		if c.Resolution == "1080p" && c.AspectRatio != "16:9" {
			return fmt.Errorf("resolution 1080p requires aspectRatio 16:9")
		}
	}
	if c.PersonGeneration != "" {
		if _, ok := allowedPersonGeneration[c.PersonGeneration]; !ok {
			return fmt.Errorf("personGeneration must be one of allow_all, allow_adult, dont_allow")
		}
	}
	if c.SampleCount < 1 || c.SampleCount > MaxSampleCount {
		return fmt.Errorf("sampleCount must be between 1 and %d", MaxSampleCount)
	}
	if c.DurationSeconds < 0 || c.DurationSeconds > 60 {
		return fmt.Errorf("durationSeconds must be between 0 and 60")
	}
	return nil
}

// DecodeVideoConfig converts a loose option map into a VideoConfig. Unknown
// keys are ignored.
func DecodeVideoConfig(options map[string]any) (VideoConfig, error) {
	var cfg VideoConfig
	if len(options) == 0 {
		return cfg, nil
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return cfg, fmt.Errorf("encode options: %w", err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("options: %w", err)
	}
	return cfg, nil
}

// ParsePrompt accepts either plain text or a JSON object. A JSON prompt
// contributes its "prompt" (or "description") field as the text and every
// other primitive field as an option.
func ParsePrompt(raw string) (string, map[string]any) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return trimmed, nil
	}
	text := ""
	for _, key := range []string{"prompt", "description"} {
		if v, ok := doc[key].(string); ok && strings.TrimSpace(v) != "" {
			text = strings.TrimSpace(v)
			break
		}
	}
	if text == "" {
		return trimmed, nil
	}
	extras := make(map[string]any)
	for key, value := range doc {
		if key == "prompt" || key == "description" {
			continue
		}
		switch value.(type) {
		case string, float64, bool:
			extras[key] = value
		}
	}
	if len(extras) == 0 {
		extras = nil
	}
	return text, extras
}
