package genai

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"strconv"
	"strings"
)

const framesPerScene = 6

// renderStoryboard turns a script into an animated GIF: one colour block per
// scene with drifting stripes and a progress bar.
func renderStoryboard(script *Script, seed, aspect string) ([]byte, error) {
	if script == nil || len(script.Scenes) == 0 {
		return nil, fmt.Errorf("empty storyboard")
	}
	width, height := frameSize(aspect)
	totalFrames := len(script.Scenes) * framesPerScene
	delay := maxInt(5, script.Duration*100/totalFrames)

	anim := &gif.GIF{LoopCount: 0}
	bar := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for i, scene := range script.Scenes {
		base := sceneColor(scene.Background, seed, i)
		accent := colorFromSeed(seed, i+1)
		for f := 0; f < framesPerScene; f++ {
			frame := image.NewPaletted(image.Rect(0, 0, width, height), palette.Plan9)
			draw.Draw(frame, frame.Bounds(), image.NewUniform(base), image.Point{}, draw.Src)

			stripeHeight := maxInt(6, height/12)
			offset := f * stripeHeight / framesPerScene * 2
			for y := -stripeHeight * 2; y < height; y += stripeHeight * 2 {
				top := y + offset
				stripe := image.Rect(0, maxInt(0, top), width, minInt(height, top+stripeHeight))
				if stripe.Empty() {
					continue
				}
				draw.Draw(frame, stripe, image.NewUniform(accent), image.Point{}, draw.Src)
			}

			done := i*framesPerScene + f + 1
			progress := image.Rect(0, height-4, width*done/totalFrames, height)
			draw.Draw(frame, progress, image.NewUniform(bar), image.Point{}, draw.Src)

			anim.Image = append(anim.Image, frame)
			anim.Delay = append(anim.Delay, delay)
		}
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, fmt.Errorf("encode storyboard: %w", err)
	}
	return buf.Bytes(), nil
}

func frameSize(aspect string) (int, int) {
	if strings.TrimSpace(aspect) == "9:16" {
		return 180, 320
	}
	return 320, 180
}

func sceneColor(background, seed string, index int) color.RGBA {
	bg := strings.TrimPrefix(strings.TrimSpace(background), "#")
	if len(bg) == 6 {
		if _, err := strconv.ParseUint(bg, 16, 32); err == nil {
			return colorFromSeed(strings.ToLower(bg), 0)
		}
	}
	return colorFromSeed(seed, index*2)
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if seed == "" {
		seed = "000000"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	r := mustParseHexByte(segment[0:2])
	g := mustParseHexByte(segment[2:4])
	b := mustParseHexByte(segment[4:6])
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func mustParseHexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func deterministicSeed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(fmt.Sprintf("%v", part)))
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}
