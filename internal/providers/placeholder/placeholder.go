// Package placeholder produces clearly labelled stand-in videos when the real
// video service cannot be reached.
package placeholder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"vidabot/internal/domain"
	"vidabot/internal/domain/jsoncfg"
	"vidabot/internal/generation"
)

// ModelName is reported as the model of placeholder results.
const ModelName = "placeholder"

// Label prefixes the text embedded in every placeholder.
const Label = "vidabot placeholder"

// Strategy is the Mock path. It performs no network I/O.
type Strategy struct{}

func NewStrategy() *Strategy {
	return &Strategy{}
}

func (s *Strategy) Kind() domain.StrategyKind { return domain.StrategyMock }

func (s *Strategy) Model() string { return ModelName }

func (s *Strategy) Generate(ctx context.Context, req domain.GenerationRequest, sink generation.ProgressSink) (*domain.Job, *domain.Result, error) {
	if sink == nil {
		sink = generation.NopSink
	}
	seed := Seed(req.Prompt)
	job := domain.NewJob("placeholder/"+seed, 1)
	job.Strategy = domain.StrategyMock
	if err := job.StartPolling(); err != nil {
		return job, nil, err
	}
	if err := ctx.Err(); err != nil {
		_ = job.Cancel(err)
		return job, nil, job.Err
	}
	sink.Progress(ctx, "Rendering placeholder video...")
	if err := job.Complete("placeholder://" + seed); err != nil {
		return job, nil, err
	}
	return job, &domain.Result{
		JobID:           job.ID,
		Strategy:        domain.StrategyMock,
		Model:           ModelName,
		Asset:           domain.NewMaterializedAsset(Render(req.Prompt), "video/mp4"),
		DurationSeconds: jsoncfg.DefaultDurationSeconds,
		SourceURI:       job.ResultAssetURI,
	}, nil
}

// Seed derives the deterministic placeholder identifier for a prompt.
func Seed(prompt string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(prompt)))
	return hex.EncodeToString(sum[:])[:16]
}

// Render builds a minimal ISO-BMFF file: an ftyp box followed by a free box
// carrying the label. Identical prompts yield identical bytes.
func Render(prompt string) []byte {
	var buf bytes.Buffer
	ftyp := []byte("isom")
	ftyp = binary.BigEndian.AppendUint32(ftyp, 0x200)
	ftyp = append(ftyp, []byte("isomiso2mp41")...)
	writeBox(&buf, "ftyp", ftyp)

	text := fmt.Sprintf("%s %s\nprompt: %s\n", Label, Seed(prompt), strings.TrimSpace(prompt))
	writeBox(&buf, "free", []byte(text))
	return buf.Bytes()
}

// IsPlaceholder reports whether data was produced by Render.
func IsPlaceholder(data []byte) bool {
	return bytes.Contains(data, []byte(Label))
}

func writeBox(buf *bytes.Buffer, kind string, payload []byte) {
	var header [8]byte
	binary.BigEndian.PutUint32(header[:4], uint32(8+len(payload)))
	copy(header[4:], kind)
	buf.Write(header[:])
	buf.Write(payload)
}

var _ generation.Strategy = (*Strategy)(nil)
