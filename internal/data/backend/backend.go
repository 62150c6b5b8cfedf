package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/masquerade/internal/data"
	"github.com/songzhibin97/masquerade/internal/models"
	"github.com/songzhibin97/masquerade/internal/utils/request"
)

const (
	agentsPath       = "/rest/v1/ai_agents"
	transactionsPath = "/rest/v1/transactions"
)

// Client talks to the hosted backend's REST interface (PostgREST dialect).
// It implements data.DataStorage.
type Client struct {
	httpClient *resty.Client
}

func NewClient(baseURL, apiKey string) *Client {
	c := request.New(baseURL).
		SetHeader("apikey", apiKey).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")

	return &Client{httpClient: c}
}

// ListActiveAgents implements data.AgentStore
func (c *Client) ListActiveAgents(ctx context.Context) ([]models.Agent, error) {
	var agents []models.Agent

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"select": "*",
			"active": "eq.true",
			"order":  "reputation_score.desc",
		}).
		SetResult(&agents).
		Get(agentsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode(), resp.String())
	}

	return agents, nil
}

// UpdateAgent implements data.AgentStore
func (c *Client) UpdateAgent(ctx context.Context, update *models.AgentUpdate) (*models.Agent, error) {
	body := map[string]interface{}{
		"description":                update.Description,
		"pricing_model":              update.PricingModel,
		"subscription_fee":           update.SubscriptionFee,
		"performance_fee_percentage": update.PerformanceFeePercentage,
		"cost_per_execution":         update.CostPerExecution,
	}

	var updated []models.Agent
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("name", "eq."+update.Name).
		SetBody(body).
		SetResult(&updated).
		Patch(agentsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode(), resp.String())
	}

	if len(updated) == 0 {
		return nil, fmt.Errorf("agent %q: %w", update.Name, data.ErrNotFound)
	}

	return &updated[0], nil
}

// SaveTransaction implements data.TransactionStore
func (c *Client) SaveTransaction(ctx context.Context, tx *models.TransactionRecord) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=minimal").
		SetBody(tx).
		Post(transactionsPath)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

// ListRecentTransactions implements data.TransactionStore
func (c *Client) ListRecentTransactions(ctx context.Context, limit int) ([]models.TransactionRecord, error) {
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "created_at.desc")
	params.Set("limit", strconv.Itoa(limit))

	var txs []models.TransactionRecord
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		SetResult(&txs).
		Get(transactionsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode(), resp.String())
	}

	return txs, nil
}
