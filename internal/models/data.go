package models

import "time"

// PoolStats 隐私池统计数据
type PoolStats struct {
	Source       string    `json:"source"`
	PoolSize     float64   `json:"pool_size"`     // USD
	ActiveMixers float64   `json:"active_mixers"` // 活跃混币参与者
	AnonymitySet float64   `json:"anonymity_set"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PriceTick ETH/USD 价格
type PriceTick struct {
	Source    string    `json:"source"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// PerformanceMetrics Agent 历史表现
type PerformanceMetrics struct {
	TotalExecutions int     `json:"totalExecutions"`
	SuccessRate     float64 `json:"successRate"`
	AverageAPY      float64 `json:"averageApy"`
}

// PricingModel Agent 收费模式
type PricingModel string

const (
	PricingFree         PricingModel = "free"
	PricingSubscription PricingModel = "subscription"
	PricingPerformance  PricingModel = "performance"
	PricingOneTime      PricingModel = "one_time"
)

// Agent 市场中的 AI Agent
type Agent struct {
	ID                       string             `json:"id"`
	Name                     string             `json:"name"`
	Description              string             `json:"description"`
	AgentType                string             `json:"agent_type"`
	ReputationScore          float64            `json:"reputation_score"`
	PerformanceMetrics       PerformanceMetrics `json:"performance_metrics"`
	ZKProofCommitment        string             `json:"zk_proof_commitment"`
	TrustModel               string             `json:"trust_model"`
	PricingModel             PricingModel       `json:"pricing_model,omitempty"`
	CostPerExecution         *float64           `json:"cost_per_execution,omitempty"`
	SubscriptionFee          *float64           `json:"subscription_fee,omitempty"`
	PerformanceFeePercentage *float64           `json:"performance_fee_percentage,omitempty"`
	Active                   bool               `json:"active"`
}

// AgentUpdate 描述与定价更新
type AgentUpdate struct {
	Name                     string       `json:"name"`
	Description              string       `json:"description"`
	PricingModel             PricingModel `json:"pricing_model"`
	SubscriptionFee          *float64     `json:"subscription_fee"`
	PerformanceFeePercentage *float64     `json:"performance_fee_percentage"`
	CostPerExecution         *float64     `json:"cost_per_execution"`
}

// TransactionRecord 持久化的交易记录
type TransactionRecord struct {
	ID           string    `json:"id"`
	TxType       string    `json:"tx_type"`
	Amount       float64   `json:"amount"`
	PrivacyLevel string    `json:"privacy_level"`
	Status       string    `json:"status"`
	TxHash       string    `json:"tx_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
