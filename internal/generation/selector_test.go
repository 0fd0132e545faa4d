package generation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"vidabot/internal/domain"
)

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name      string
		available bool
		err       error
		want      domain.StrategyKind
		ok        bool
	}{
		{name: "unreachable", available: false, want: domain.StrategyMock, ok: true},
		{name: "unreachable ignores error", available: false, err: domain.Errorf(domain.KindAuth, "x"), want: domain.StrategyMock, ok: true},
		{name: "reachable", available: true, want: domain.StrategyPrimary, ok: true},
		{name: "permission", available: true, err: fmt.Errorf("submit: %w", domain.ClassifyMessage("Access denied to this model")), want: domain.StrategySecondary, ok: true},
		{name: "auth", available: true, err: domain.Errorf(domain.KindAuth, "API key not valid")},
		{name: "quota", available: true, err: domain.Errorf(domain.KindRateLimit, "quota")},
		{name: "validation", available: true, err: domain.Errorf(domain.KindValidation, "prompt")},
		{name: "unclassified", available: true, err: errors.New("permission")},
		{name: "fallback already used", available: true, err: domain.NewError(domain.KindPermission, "no access", domain.ErrFallbackUsed)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectStrategy(tt.available, tt.err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
