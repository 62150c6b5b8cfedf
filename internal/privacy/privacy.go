package privacy

// PrivacyLevel 隐私等级
type PrivacyLevel string

const (
	LevelStandard PrivacyLevel = "standard"
	LevelAdvanced PrivacyLevel = "advanced"
	LevelMaximum  PrivacyLevel = "maximum"
)

// Levels returns the three tiers from weakest to strongest.
func Levels() []PrivacyLevel {
	return []PrivacyLevel{LevelStandard, LevelAdvanced, LevelMaximum}
}

// Congestion 网络拥堵程度
type Congestion string

const (
	CongestionLow    Congestion = "low"
	CongestionMedium Congestion = "medium"
	CongestionHigh   Congestion = "high"
)

// Breakdown 隐私评分分项
type Breakdown struct {
	PoolLiquidity     float64 `json:"pool_liquidity"`
	MixerActivity     float64 `json:"mixer_activity"`
	AnonymitySetSize  float64 `json:"anonymity_set_size"`
	TimeRandomization float64 `json:"time_randomization"`
}

// PrivacyMetrics 隐私评分结果
type PrivacyMetrics struct {
	PoolSize     float64   `json:"pool_size"`
	ActiveMixers float64   `json:"active_mixers"`
	AnonymitySet float64   `json:"anonymity_set"`
	TotalScore   float64   `json:"total_score"`
	Breakdown    Breakdown `json:"breakdown"`
}

// GasEstimate 交易费用估算
type GasEstimate struct {
	EstimatedGas      string     `json:"estimated_gas"`
	EstimatedCostETH  string     `json:"estimated_cost_eth"`
	EstimatedCostUSD  string     `json:"estimated_cost_usd"`
	EstimatedTime     string     `json:"estimated_time"`
	NetworkCongestion Congestion `json:"network_congestion"`

	GasUnits         int64 `json:"gas_units"`
	EstimatedMinutes int   `json:"estimated_minutes"`
}
