package marketplace

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/songzhibin97/masquerade/internal/models"
)

// Pricing 生效的收费信息
type Pricing struct {
	Model                    models.PricingModel `json:"pricing_model"`
	CostPerExecution         *float64            `json:"cost_per_execution,omitempty"`
	SubscriptionFee          *float64            `json:"subscription_fee,omitempty"`
	PerformanceFeePercentage *float64            `json:"performance_fee_percentage,omitempty"`
}

// PricingDisplay is the badge text for a pricing model.
type PricingDisplay struct {
	Label  string `json:"label"`
	Detail string `json:"detail"`
}

func ptr(v float64) *float64 { return &v }

// DefaultPricing returns the pricing shown for an agent type when the listing
// carries none of its own.
func DefaultPricing(agentType string) Pricing {
	switch agentType {
	case "strategy":
		return Pricing{Model: models.PricingPerformance, PerformanceFeePercentage: ptr(15)}
	case "risk_management":
		return Pricing{Model: models.PricingSubscription, SubscriptionFee: ptr(29)}
	case "arbitrage":
		return Pricing{Model: models.PricingPerformance, PerformanceFeePercentage: ptr(20)}
	default:
		return Pricing{Model: models.PricingFree}
	}
}

// EffectivePricing 合并 Agent 自身定价与类型默认定价。
// A zero or missing field falls back to the default for the agent's type.
func EffectivePricing(agent models.Agent) Pricing {
	def := DefaultPricing(agent.AgentType)

	p := Pricing{
		Model:                    agent.PricingModel,
		CostPerExecution:         nonZero(agent.CostPerExecution, def.CostPerExecution),
		SubscriptionFee:          nonZero(agent.SubscriptionFee, def.SubscriptionFee),
		PerformanceFeePercentage: nonZero(agent.PerformanceFeePercentage, def.PerformanceFeePercentage),
	}
	if p.Model == "" {
		p.Model = def.Model
	}
	return p
}

func nonZero(v, fallback *float64) *float64 {
	if v != nil && *v != 0 {
		return v
	}
	return fallback
}

// Describe renders the badge label and detail.
func (p Pricing) Describe() PricingDisplay {
	switch p.Model {
	case models.PricingSubscription:
		return PricingDisplay{Label: "SUBSCRIPTION", Detail: fmt.Sprintf("$%s/month", amount(p.SubscriptionFee))}
	case models.PricingPerformance:
		return PricingDisplay{Label: "PERFORMANCE FEE", Detail: fmt.Sprintf("%s%% of profit", amount(p.PerformanceFeePercentage))}
	case models.PricingOneTime:
		return PricingDisplay{Label: "PAY PER USE", Detail: fmt.Sprintf("$%s/execution", amount(p.CostPerExecution))}
	default:
		return PricingDisplay{Label: "FREE", Detail: "No cost"}
	}
}

// ActivationText is the sentence shown before an agent is activated.
func (p Pricing) ActivationText() string {
	switch p.Model {
	case "", models.PricingFree:
		return "This agent is free to use"
	case models.PricingSubscription:
		return fmt.Sprintf("Monthly subscription: $%s", amount(p.SubscriptionFee))
	case models.PricingPerformance:
		return fmt.Sprintf("Performance fee: %s%% of profits", amount(p.PerformanceFeePercentage))
	default:
		return "Pricing information not available"
	}
}

func amount(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return "0"
	}
	return decimal.NewFromFloat(*v).String()
}

// IsYieldAgent reports whether agents of this type generate yield.
func IsYieldAgent(agentType string) bool {
	return agentType != "privacy" && agentType != "risk_management"
}
