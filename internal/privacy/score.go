package privacy

import "math"

// 满分参考值
const (
	referencePoolSize     = 100_000_000
	referenceActiveMixers = 5_000
	referenceAnonymitySet = 15_000
)

// 各分项权重
const (
	weightPoolLiquidity     = 0.30
	weightMixerActivity     = 0.25
	weightAnonymitySetSize  = 0.30
	weightTimeRandomization = 0.15
)

// Weights returns the component weights keyed by breakdown field name.
func Weights() map[string]float64 {
	return map[string]float64{
		"pool_liquidity":     weightPoolLiquidity,
		"mixer_activity":     weightMixerActivity,
		"anonymity_set_size": weightAnonymitySetSize,
		"time_randomization": weightTimeRandomization,
	}
}

// CalculatePrivacyScore 计算隐私综合评分
//
// Inputs are not validated: negative or NaN values flow straight into the
// result. Use NewPoolStats when the numbers come from an untrusted caller.
func CalculatePrivacyScore(poolSize, activeMixers, anonymitySet float64, level PrivacyLevel) PrivacyMetrics {
	poolLiquidity := math.Min(poolSize/referencePoolSize*100, 100)
	mixerActivity := math.Min(activeMixers/referenceActiveMixers*100, 100)
	anonymitySetSize := math.Min(anonymitySet/referenceAnonymitySet*100, 100)
	timeRandomization := timeRandomizationScore(level)

	total := poolLiquidity*weightPoolLiquidity +
		mixerActivity*weightMixerActivity +
		anonymitySetSize*weightAnonymitySetSize +
		timeRandomization*weightTimeRandomization

	return PrivacyMetrics{
		PoolSize:     poolSize,
		ActiveMixers: activeMixers,
		AnonymitySet: anonymitySet,
		TotalScore:   roundOneDecimal(total),
		Breakdown: Breakdown{
			PoolLiquidity:     roundOneDecimal(poolLiquidity),
			MixerActivity:     roundOneDecimal(mixerActivity),
			AnonymitySetSize:  roundOneDecimal(anonymitySetSize),
			TimeRandomization: roundOneDecimal(timeRandomization),
		},
	}
}

func timeRandomizationScore(level PrivacyLevel) float64 {
	switch level {
	case LevelMaximum:
		return 100
	case LevelAdvanced:
		return 75
	default:
		return 50
	}
}

// roundOneDecimal rounds half up. math.Round rounds half away from zero,
// which differs for negative inputs.
func roundOneDecimal(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
