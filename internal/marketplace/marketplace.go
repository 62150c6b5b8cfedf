package marketplace

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/songzhibin97/masquerade/internal/data"
	"github.com/songzhibin97/masquerade/internal/models"
)

var ErrAgentNotFound = errors.New("agent not found")

// AllTypes matches every agent type in Filter.
const AllTypes = "all"

// AgentType 市场分类
type AgentType struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func AgentTypes() []AgentType {
	return []AgentType{
		{Value: AllTypes, Label: "All Agents"},
		{Value: "strategy", Label: "Strategy"},
		{Value: "risk_management", Label: "Risk Management"},
		{Value: "arbitrage", Label: "Arbitrage"},
		{Value: "liquidity", Label: "Liquidity"},
		{Value: "privacy", Label: "Privacy"},
	}
}

type Logger interface {
	Error(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

// Listing is an agent with its resolved pricing.
type Listing struct {
	models.Agent
	Pricing    Pricing        `json:"pricing"`
	Display    PricingDisplay `json:"pricing_display"`
	YieldAgent bool           `json:"yield_agent"`
}

func NewListing(agent models.Agent) Listing {
	p := EffectivePricing(agent)
	return Listing{
		Agent:      agent,
		Pricing:    p,
		Display:    p.Describe(),
		YieldAgent: IsYieldAgent(agent.AgentType),
	}
}

// Filter keeps agents of the given type whose name or description contains
// query, case-insensitively. An empty type or AllTypes matches every type.
func Filter(agents []models.Agent, agentType, query string) []models.Agent {
	q := strings.ToLower(strings.TrimSpace(query))

	result := make([]models.Agent, 0, len(agents))
	for _, a := range agents {
		if agentType != "" && agentType != AllTypes && a.AgentType != agentType {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(a.Name), q) &&
			!strings.Contains(strings.ToLower(a.Description), q) {
			continue
		}
		result = append(result, a)
	}
	return result
}

// Catalog 读取并筛选市场中的 Agent
type Catalog struct {
	store  data.AgentStore
	logger Logger
}

func NewCatalog(store data.AgentStore, logger Logger) *Catalog {
	return &Catalog{
		store:  store,
		logger: logger,
	}
}

// List returns active agents, highest reputation first.
func (c *Catalog) List(ctx context.Context, agentType, query string) ([]Listing, error) {
	agents, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	filtered := Filter(agents, agentType, query)

	listings := make([]Listing, 0, len(filtered))
	for _, a := range filtered {
		listings = append(listings, NewListing(a))
	}
	return listings, nil
}

// Top returns at most n agents, highest reputation first.
func (c *Catalog) Top(ctx context.Context, n int) ([]Listing, error) {
	listings, err := c.List(ctx, AllTypes, "")
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(listings) > n {
		listings = listings[:n]
	}
	return listings, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (*Listing, error) {
	agents, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	for _, a := range agents {
		if a.ID == id {
			l := NewListing(a)
			return &l, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
}

func (c *Catalog) load(ctx context.Context) ([]models.Agent, error) {
	agents, err := c.store.ListActiveAgents(ctx)
	if err != nil {
		c.logger.Error("failed to load agents", "error", err)
		return nil, fmt.Errorf("failed to load agents: %w", err)
	}

	active := make([]models.Agent, 0, len(agents))
	for _, a := range agents {
		if a.Active {
			active = append(active, a)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].ReputationScore > active[j].ReputationScore
	})

	c.logger.Info("loaded agents", "count", len(active))
	return active, nil
}
