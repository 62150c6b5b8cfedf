package data

import (
	"context"
	"errors"
	"time"

	"github.com/songzhibin97/masquerade/internal/models"
)

// DataCollector 负责从各种源收集隐私池与价格数据
type DataCollector interface {
	// CollectPoolStats retrieves the current privacy pool statistics
	CollectPoolStats(ctx context.Context) (*models.PoolStats, error)

	// CollectETHPrice retrieves the current ETH/USD price
	CollectETHPrice(ctx context.Context) (*models.PriceTick, error)

	// SubscribeToETHPrice returns a channel of periodic price updates
	SubscribeToETHPrice(ctx context.Context, refreshInterval time.Duration) (<-chan models.PriceTick, error)
}

// AgentStore 处理 Agent 数据的读取与更新
type AgentStore interface {
	// ListActiveAgents returns active agents ordered by reputation, highest first
	ListActiveAgents(ctx context.Context) ([]models.Agent, error)

	// UpdateAgent patches description and pricing of the agent with the given name
	UpdateAgent(ctx context.Context, update *models.AgentUpdate) (*models.Agent, error)
}

// TransactionStore 处理交易记录的持久化
type TransactionStore interface {
	// SaveTransaction stores a finished transaction
	SaveTransaction(ctx context.Context, tx *models.TransactionRecord) error

	// ListRecentTransactions returns the newest transactions first
	ListRecentTransactions(ctx context.Context, limit int) ([]models.TransactionRecord, error)
}

// DataStorage is implemented by both the Postgres store and the hosted backend client.
type DataStorage interface {
	AgentStore
	TransactionStore
}

// ErrNotFound is returned when a store has no record matching the request.
var ErrNotFound = errors.New("record not found")
