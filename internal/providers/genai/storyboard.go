package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"vidabot/internal/domain"
)

// Scene is one beat of a storyboard script.
type Scene struct {
	Time        string `json:"time"`
	Text        string `json:"text"`
	Background  string `json:"background"`
	Description string `json:"description"`
}

// Script is the storyboard the content model writes when the video model is
// not available.
type Script struct {
	Duration int     `json:"duration"`
	Scenes   []Scene `json:"scenes"`
}

const (
	defaultScriptDuration = 8
	maxScenes             = 8
)

// Storyboard asks the content model for a scene script. An unparsable answer
// degrades to a single scene built from the prompt. A reference image, when
// given, is sent along so the scenes follow it.
func (c *Client) Storyboard(ctx context.Context, apiKey, prompt string, reference *domain.ReferenceAsset) (*Script, error) {
	text, err := c.GenerateText(ctx, apiKey, buildStoryboardPrompt(prompt, reference != nil), "application/json", reference)
	if err != nil {
		return nil, err
	}
	script, ok := parseScript(text)
	if !ok {
		c.logger.Warn().Str("model", c.model).Msg("genai: storyboard reply unparsable; using single scene")
		return singleScene(prompt), nil
	}
	return script, nil
}

func buildStoryboardPrompt(prompt string, withReference bool) string {
	var b strings.Builder
	b.WriteString("Write a short video storyboard for the following idea:\n")
	b.WriteString(strings.TrimSpace(prompt))
	if withReference {
		b.WriteString("\n\nKeep the product, colours and setting of the attached reference image.")
	}
	b.WriteString("\n\nAnswer with JSON only, shaped as ")
	b.WriteString(`{"duration": 8, "scenes": [{"time": "0-2s", "text": "on-screen caption", "background": "#RRGGBB", "description": "what happens"}]}`)
	b.WriteString(". Use 3 to 5 scenes.")
	return b.String()
}

func parseScript(text string) (*Script, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	var script Script
	if err := json.Unmarshal([]byte(text[start:end+1]), &script); err != nil {
		return nil, false
	}
	scenes := script.Scenes[:0]
	for _, s := range script.Scenes {
		if strings.TrimSpace(s.Text) == "" && strings.TrimSpace(s.Description) == "" {
			continue
		}
		scenes = append(scenes, s)
	}
	if len(scenes) == 0 {
		return nil, false
	}
	if len(scenes) > maxScenes {
		scenes = scenes[:maxScenes]
	}
	script.Scenes = scenes
	if script.Duration <= 0 || script.Duration > 60 {
		script.Duration = defaultScriptDuration
	}
	return &script, true
}

func singleScene(prompt string) *Script {
	return &Script{
		Duration: defaultScriptDuration,
		Scenes: []Scene{{
			Time:        fmt.Sprintf("0-%ds", defaultScriptDuration),
			Text:        strings.TrimSpace(prompt),
			Description: strings.TrimSpace(prompt),
		}},
	}
}
