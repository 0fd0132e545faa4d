package placeholder

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidabot/internal/domain"
)

func TestRenderIsDeterministicAndLabelled(t *testing.T) {
	a := Render("A cat in a garden")
	b := Render("A cat in a garden")
	c := Render("A dog in a garden")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, IsPlaceholder(a))
	assert.Equal(t, "ftyp", string(a[4:8]))
	size := binary.BigEndian.Uint32(a[:4])
	assert.Equal(t, "free", string(a[size+4:size+8]))
	assert.True(t, bytes.Contains(a, []byte(Seed("A cat in a garden"))))
}

func TestStrategyGenerate(t *testing.T) {
	s := NewStrategy()
	job, res, err := s.Generate(context.Background(), domain.GenerationRequest{Prompt: "A cat in a garden", Credentials: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, job.State)
	assert.Equal(t, domain.StrategyMock, res.Strategy)
	assert.Equal(t, ModelName, res.Model)
	assert.Equal(t, "video/mp4", res.Asset.MimeType)
	assert.Equal(t, 8, res.DurationSeconds)
	assert.True(t, IsPlaceholder(res.Asset.Bytes))
}

func TestStrategyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job, res, err := NewStrategy().Generate(ctx, domain.GenerationRequest{Prompt: "A cat in a garden"}, nil)
	assert.Nil(t, res)
	assert.Equal(t, domain.JobCancelled, job.State)
	assert.Equal(t, domain.KindCancelled, domain.KindOf(err))
}
