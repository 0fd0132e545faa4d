package generation

import (
	"errors"

	"vidabot/internal/domain"
)

// SelectStrategy picks the execution path. An unreachable primary means Mock;
// a Permission failure of the primary means Secondary, unless that fallback
// already ran upstream. Any other failure has no fallback and ok is false.
func SelectStrategy(primaryAvailable bool, lastErr error) (kind domain.StrategyKind, ok bool) {
	if !primaryAvailable {
		return domain.StrategyMock, true
	}
	if lastErr == nil {
		return domain.StrategyPrimary, true
	}
	if errors.Is(lastErr, domain.ErrFallbackUsed) {
		return "", false
	}
	if domain.KindOf(lastErr) == domain.KindPermission {
		return domain.StrategySecondary, true
	}
	return "", false
}
