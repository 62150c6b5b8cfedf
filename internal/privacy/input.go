package privacy

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidInput        = errors.New("invalid privacy input")
	ErrUnknownPrivacyLevel = errors.New("unknown privacy level")
)

var validate = validator.New()

// ParsePrivacyLevel accepts the three tier names, case-insensitively.
func ParsePrivacyLevel(s string) (PrivacyLevel, error) {
	switch level := PrivacyLevel(strings.ToLower(strings.TrimSpace(s))); level {
	case LevelStandard, LevelAdvanced, LevelMaximum:
		return level, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPrivacyLevel, s)
	}
}

// PoolStats 隐私池状态（已校验）
type PoolStats struct {
	PoolSize     float64 `json:"pool_size" validate:"gte=0"`
	ActiveMixers float64 `json:"active_mixers" validate:"gte=0"`
	AnonymitySet float64 `json:"anonymity_set" validate:"gte=0"`
}

// NewPoolStats rejects negative and NaN inputs before they reach the
// calculator.
func NewPoolStats(poolSize, activeMixers, anonymitySet float64) (PoolStats, error) {
	stats := PoolStats{
		PoolSize:     poolSize,
		ActiveMixers: activeMixers,
		AnonymitySet: anonymitySet,
	}
	if err := stats.Validate(); err != nil {
		return PoolStats{}, err
	}
	return stats, nil
}

// Validate checks every field is a finite, non-negative number.
func (p PoolStats) Validate() error {
	for name, v := range map[string]float64{
		"pool_size":     p.PoolSize,
		"active_mixers": p.ActiveMixers,
		"anonymity_set": p.AnonymitySet,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidInput, name)
		}
	}

	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s must be >= 0", ErrInvalidInput, verrs[0].Field())
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// Score runs CalculatePrivacyScore over the validated stats.
func (p PoolStats) Score(level PrivacyLevel) PrivacyMetrics {
	return CalculatePrivacyScore(p.PoolSize, p.ActiveMixers, p.AnonymitySet, level)
}
