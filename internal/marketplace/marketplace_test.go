package marketplace

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/masquerade/internal/data"
	"github.com/songzhibin97/masquerade/internal/models"
)

type nopLogger struct{}

func (nopLogger) Error(msg string, fields ...interface{}) {}
func (nopLogger) Info(msg string, fields ...interface{})  {}

type fakeStore struct {
	agents  []models.Agent
	listErr error
	failOn  map[string]bool
	updated []string
}

func (f *fakeStore) ListActiveAgents(ctx context.Context) ([]models.Agent, error) {
	return f.agents, f.listErr
}

func (f *fakeStore) UpdateAgent(ctx context.Context, update *models.AgentUpdate) (*models.Agent, error) {
	if f.failOn[update.Name] {
		return nil, fmt.Errorf("agent %q: %w", update.Name, data.ErrNotFound)
	}
	f.updated = append(f.updated, update.Name)
	return &models.Agent{Name: update.Name, Description: update.Description, PricingModel: update.PricingModel}, nil
}

func testAgents() []models.Agent {
	return []models.Agent{
		{ID: "1", Name: "Privacy Sentinel", Description: "Stealth address generation", AgentType: "privacy", ReputationScore: 91, Active: true},
		{ID: "2", Name: "Yield Optimizer Pro", Description: "Optimizing yield farming strategies", AgentType: "strategy", ReputationScore: 96.5, Active: true},
		{ID: "3", Name: "Risk Shield AI", Description: "Real-time risk monitoring", AgentType: "risk_management", ReputationScore: 89, Active: true},
		{ID: "4", Name: "Arbitrage Hunter", Description: "Arbitrage detection across DEXs", AgentType: "arbitrage", ReputationScore: 94, Active: true},
		{ID: "5", Name: "Retired Bot", Description: "Old strategy agent", AgentType: "strategy", ReputationScore: 99, Active: false},
	}
}

func names(agents []models.Agent) []string {
	out := make([]string, 0, len(agents))
	for _, a := range agents {
		out = append(out, a.Name)
	}
	return out
}

func TestFilter(t *testing.T) {
	agents := testAgents()[:4]

	tests := []struct {
		name      string
		agentType string
		query     string
		want      []string
	}{
		{name: "all", agentType: AllTypes, want: []string{"Privacy Sentinel", "Yield Optimizer Pro", "Risk Shield AI", "Arbitrage Hunter"}},
		{name: "empty type", agentType: "", want: []string{"Privacy Sentinel", "Yield Optimizer Pro", "Risk Shield AI", "Arbitrage Hunter"}},
		{name: "by type", agentType: "strategy", want: []string{"Yield Optimizer Pro"}},
		{name: "query on name", agentType: AllTypes, query: "SHIELD", want: []string{"Risk Shield AI"}},
		{name: "query on description", agentType: AllTypes, query: "dexs", want: []string{"Arbitrage Hunter"}},
		{name: "type and query", agentType: "privacy", query: "yield", want: []string{}},
		{name: "no match", agentType: "liquidity", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Filter(agents, tt.agentType, tt.query)))
		})
	}
}

func TestDefaultPricing(t *testing.T) {
	tests := []struct {
		agentType string
		want      PricingDisplay
	}{
		{agentType: "strategy", want: PricingDisplay{Label: "PERFORMANCE FEE", Detail: "15% of profit"}},
		{agentType: "risk_management", want: PricingDisplay{Label: "SUBSCRIPTION", Detail: "$29/month"}},
		{agentType: "arbitrage", want: PricingDisplay{Label: "PERFORMANCE FEE", Detail: "20% of profit"}},
		{agentType: "liquidity", want: PricingDisplay{Label: "FREE", Detail: "No cost"}},
		{agentType: "privacy", want: PricingDisplay{Label: "FREE", Detail: "No cost"}},
		{agentType: "unknown", want: PricingDisplay{Label: "FREE", Detail: "No cost"}},
	}

	for _, tt := range tests {
		t.Run(tt.agentType, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultPricing(tt.agentType).Describe())
		})
	}
}

func TestEffectivePricing(t *testing.T) {
	cost := 0.5
	zero := 0.0

	t.Run("own pricing wins", func(t *testing.T) {
		p := EffectivePricing(models.Agent{AgentType: "strategy", PricingModel: models.PricingOneTime, CostPerExecution: &cost})
		assert.Equal(t, PricingDisplay{Label: "PAY PER USE", Detail: "$0.5/execution"}, p.Describe())
	})

	t.Run("missing model falls back to type", func(t *testing.T) {
		p := EffectivePricing(models.Agent{AgentType: "risk_management"})
		assert.Equal(t, models.PricingSubscription, p.Model)
		assert.Equal(t, "Monthly subscription: $29", p.ActivationText())
	})

	t.Run("zero fee falls back to type default", func(t *testing.T) {
		p := EffectivePricing(models.Agent{AgentType: "arbitrage", PricingModel: models.PricingPerformance, PerformanceFeePercentage: &zero})
		assert.Equal(t, "20% of profit", p.Describe().Detail)
		assert.Equal(t, "Performance fee: 20% of profits", p.ActivationText())
	})

	t.Run("free", func(t *testing.T) {
		p := EffectivePricing(models.Agent{AgentType: "privacy"})
		assert.Equal(t, "This agent is free to use", p.ActivationText())
	})

	t.Run("one time activation text", func(t *testing.T) {
		p := Pricing{Model: models.PricingOneTime, CostPerExecution: &cost}
		assert.Equal(t, "Pricing information not available", p.ActivationText())
	})
}

func TestIsYieldAgent(t *testing.T) {
	assert.True(t, IsYieldAgent("strategy"))
	assert.True(t, IsYieldAgent("arbitrage"))
	assert.False(t, IsYieldAgent("privacy"))
	assert.False(t, IsYieldAgent("risk_management"))
}

func TestCatalog_List(t *testing.T) {
	c := NewCatalog(&fakeStore{agents: testAgents()}, nopLogger{})
	ctx := context.Background()

	listings, err := c.List(ctx, AllTypes, "")
	require.NoError(t, err)
	require.Len(t, listings, 4)

	// inactive agents are dropped, order is by reputation
	assert.Equal(t, "Yield Optimizer Pro", listings[0].Name)
	assert.Equal(t, "Arbitrage Hunter", listings[1].Name)
	assert.Equal(t, "Privacy Sentinel", listings[2].Name)
	assert.Equal(t, "Risk Shield AI", listings[3].Name)

	assert.Equal(t, "PERFORMANCE FEE", listings[0].Display.Label)
	assert.True(t, listings[0].YieldAgent)
	assert.False(t, listings[2].YieldAgent)

	strategy, err := c.List(ctx, "strategy", "")
	require.NoError(t, err)
	require.Len(t, strategy, 1)
	assert.Equal(t, "2", strategy[0].ID)
}

func TestCatalog_TopAndGet(t *testing.T) {
	c := NewCatalog(&fakeStore{agents: testAgents()}, nopLogger{})
	ctx := context.Background()

	top, err := c.Top(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, top, 3)

	agent, err := c.Get(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "Risk Shield AI", agent.Name)
	assert.Equal(t, "$29/month", agent.Display.Detail)

	_, err = c.Get(ctx, "5")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestCatalog_StoreError(t *testing.T) {
	c := NewCatalog(&fakeStore{listErr: fmt.Errorf("connection refused")}, nopLogger{})

	_, err := c.List(context.Background(), AllTypes, "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSyncAgentData(t *testing.T) {
	store := &fakeStore{failOn: map[string]bool{"Arbitrage Hunter": true}}
	updates := CanonicalUpdates()
	require.Len(t, updates, 6)

	results, err := SyncAgentData(context.Background(), store, updates, nopLogger{})
	require.NoError(t, err)
	require.Len(t, results, 6)

	var updated, failed int
	for _, r := range results {
		switch r.Status {
		case "updated":
			updated++
			assert.NotNil(t, r.Agent)
		case "error":
			failed++
			assert.Equal(t, "Arbitrage Hunter", r.Name)
			assert.Contains(t, r.Error, "not found")
		}
	}
	assert.Equal(t, 5, updated)
	assert.Equal(t, 1, failed)
	assert.Len(t, store.updated, 5)
}

func TestSyncAgentData_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := SyncAgentData(ctx, &fakeStore{}, CanonicalUpdates(), nopLogger{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}
