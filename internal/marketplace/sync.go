package marketplace

import (
	"context"

	"github.com/songzhibin97/masquerade/internal/data"
	"github.com/songzhibin97/masquerade/internal/models"
)

// SyncResult 单个 Agent 的同步结果
type SyncResult struct {
	Name   string        `json:"name"`
	Status string        `json:"status"` // updated or error
	Error  string        `json:"error,omitempty"`
	Agent  *models.Agent `json:"data,omitempty"`
}

// CanonicalUpdates is the reference description and pricing for the six
// launch agents.
func CanonicalUpdates() []models.AgentUpdate {
	return []models.AgentUpdate{
		{
			Name:                     "Yield Optimizer Pro",
			Description:              "Advanced AI agent for optimizing yield farming strategies across multiple DeFi protocols with ZK proof verification",
			PricingModel:             models.PricingPerformance,
			PerformanceFeePercentage: ptr(15),
		},
		{
			Name:         "Privacy Sentinel",
			Description:  "Privacy-first AI agent that ensures transaction anonymity with ZK proof verification and stealth address generation",
			PricingModel: models.PricingFree,
		},
		{
			Name:            "Risk Shield AI",
			Description:     "Real-time risk monitoring and portfolio protection with automated circuit breakers to safeguard your assets",
			PricingModel:    models.PricingSubscription,
			SubscriptionFee: ptr(29),
		},
		{
			Name:                     "Arbitrage Hunter",
			Description:              "High-speed arbitrage detection across DEXs with automatic execution for maximum profit opportunities",
			PricingModel:             models.PricingPerformance,
			PerformanceFeePercentage: ptr(20),
		},
		{
			Name:         "Liquidity Manager",
			Description:  "Automated liquidity provisioning with dynamic rebalancing for optimal returns and minimal impermanent loss",
			PricingModel: models.PricingFree,
		},
		{
			Name:                     "DeFi Strategy Bot",
			Description:              "Multi-strategy trading agent combining yield farming, staking, and liquidity provision for diversified returns",
			PricingModel:             models.PricingPerformance,
			PerformanceFeePercentage: ptr(15),
		},
	}
}

// SyncAgentData applies updates one by one. A failed update is recorded and
// does not stop the rest; only context cancellation aborts early.
func SyncAgentData(ctx context.Context, store data.AgentStore, updates []models.AgentUpdate, logger Logger) ([]SyncResult, error) {
	results := make([]SyncResult, 0, len(updates))

	for i := range updates {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		u := updates[i]
		agent, err := store.UpdateAgent(ctx, &u)
		if err != nil {
			logger.Error("failed to update agent", "name", u.Name, "error", err)
			results = append(results, SyncResult{Name: u.Name, Status: "error", Error: err.Error()})
			continue
		}

		logger.Info("updated agent", "name", u.Name)
		results = append(results, SyncResult{Name: u.Name, Status: "updated", Agent: agent})
	}

	return results, nil
}
