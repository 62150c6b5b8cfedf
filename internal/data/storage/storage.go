package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/songzhibin97/masquerade/internal/data"
	"github.com/songzhibin97/masquerade/internal/models"

	_ "github.com/lib/pq"
)

// PostgresStorage implements data.DataStorage on a Postgres database
type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(connStr string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStorage{db: db}

	err = s.initTables()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return s, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// ListActiveAgents implements data.AgentStore
func (s *PostgresStorage) ListActiveAgents(ctx context.Context) ([]models.Agent, error) {
	query := `
        SELECT id, name, description, agent_type, reputation_score,
               performance_metrics, zk_proof_commitment, trust_model,
               pricing_model, cost_per_execution, subscription_fee,
               performance_fee_percentage, active
        FROM ai_agents
        WHERE active = TRUE
        ORDER BY reputation_score DESC
    `

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close()

	var result []models.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *agent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agent rows: %w", err)
	}

	return result, nil
}

// UpdateAgent implements data.AgentStore
func (s *PostgresStorage) UpdateAgent(ctx context.Context, update *models.AgentUpdate) (*models.Agent, error) {
	query := `
        UPDATE ai_agents SET
            description = $2,
            pricing_model = $3,
            subscription_fee = $4,
            performance_fee_percentage = $5,
            cost_per_execution = $6,
            updated_at = $7
        WHERE name = $1
        RETURNING id, name, description, agent_type, reputation_score,
                  performance_metrics, zk_proof_commitment, trust_model,
                  pricing_model, cost_per_execution, subscription_fee,
                  performance_fee_percentage, active
    `

	row := s.db.QueryRowContext(ctx, query,
		update.Name,
		update.Description,
		string(update.PricingModel),
		toNullFloat(update.SubscriptionFee),
		toNullFloat(update.PerformanceFeePercentage),
		toNullFloat(update.CostPerExecution),
		time.Now(),
	)

	agent, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("agent %q: %w", update.Name, data.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update agent: %w", err)
	}

	return agent, nil
}

// SaveTransaction implements data.TransactionStore
func (s *PostgresStorage) SaveTransaction(ctx context.Context, tx *models.TransactionRecord) error {
	query := `
        INSERT INTO transactions (
            id, tx_type, amount, privacy_level, status, tx_hash, created_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7
        )
        ON CONFLICT (id) DO UPDATE SET
            status = EXCLUDED.status,
            tx_hash = EXCLUDED.tx_hash
    `

	_, err := s.db.ExecContext(ctx, query,
		tx.ID,
		tx.TxType,
		tx.Amount,
		tx.PrivacyLevel,
		tx.Status,
		tx.TxHash,
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	return nil
}

// ListRecentTransactions implements data.TransactionStore
func (s *PostgresStorage) ListRecentTransactions(ctx context.Context, limit int) ([]models.TransactionRecord, error) {
	if limit <= 0 {
		limit = 5
	}

	query := `
        SELECT id, tx_type, amount, privacy_level, status, tx_hash, created_at
        FROM transactions
        ORDER BY created_at DESC
        LIMIT $1
    `

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var result []models.TransactionRecord
	for rows.Next() {
		var tx models.TransactionRecord
		err := rows.Scan(
			&tx.ID,
			&tx.TxType,
			&tx.Amount,
			&tx.PrivacyLevel,
			&tx.Status,
			&tx.TxHash,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		result = append(result, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAgent(row scanner) (*models.Agent, error) {
	var (
		agent        models.Agent
		metrics      []byte
		pricingModel sql.NullString
		costPerExec  sql.NullFloat64
		subscription sql.NullFloat64
		performance  sql.NullFloat64
	)

	err := row.Scan(
		&agent.ID,
		&agent.Name,
		&agent.Description,
		&agent.AgentType,
		&agent.ReputationScore,
		&metrics,
		&agent.ZKProofCommitment,
		&agent.TrustModel,
		&pricingModel,
		&costPerExec,
		&subscription,
		&performance,
		&agent.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan agent: %w", err)
	}

	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &agent.PerformanceMetrics); err != nil {
			return nil, fmt.Errorf("failed to decode performance metrics: %w", err)
		}
	}

	agent.PricingModel = models.PricingModel(pricingModel.String)
	agent.CostPerExecution = fromNullFloat(costPerExec)
	agent.SubscriptionFee = fromNullFloat(subscription)
	agent.PerformanceFeePercentage = fromNullFloat(performance)

	return &agent, nil
}

func toNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func (s *PostgresStorage) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS ai_agents (
			id TEXT PRIMARY KEY,
			name VARCHAR(100) UNIQUE NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			agent_type VARCHAR(50) NOT NULL,
			reputation_score NUMERIC(6, 2) NOT NULL DEFAULT 0,
			performance_metrics JSONB,
			zk_proof_commitment TEXT NOT NULL DEFAULT '',
			trust_model VARCHAR(50) NOT NULL DEFAULT '',
			pricing_model VARCHAR(20),
			cost_per_execution NUMERIC(18, 8),
			subscription_fee NUMERIC(18, 8),
			performance_fee_percentage NUMERIC(6, 2),
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			tx_type VARCHAR(20) NOT NULL,
			amount NUMERIC(36, 18) NOT NULL DEFAULT 0,
			privacy_level VARCHAR(20) NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL,
			tx_hash VARCHAR(66) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions (created_at DESC)`,
	}

	for _, query := range queries {
		_, err := s.db.Exec(query)
		if err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}
