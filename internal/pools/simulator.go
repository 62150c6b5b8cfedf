package pools

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"math/big"
	mrand "math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"

	"github.com/songzhibin97/masquerade/internal/models"
	"github.com/songzhibin97/masquerade/internal/privacy"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrSimulatorClosed = errors.New("simulator closed")
)

// SimulatorConfig 模拟交易参数
type SimulatorConfig struct {
	PendingDelay    time.Duration
	ProcessingDelay time.Duration
	FailureRate     float64 // 0-1
}

func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		PendingDelay:    time.Second,
		ProcessingDelay: 3 * time.Second,
		FailureRate:     0.1,
	}
}

// Recorder persists finished transactions.
type Recorder interface {
	SaveTransaction(ctx context.Context, tx *models.TransactionRecord) error
}

type Logger interface {
	Error(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

// Simulator drives deposits and stealth address requests through
// pending → processing → success|error on timers. Nothing is sent to a chain.
type Simulator struct {
	tracker  *Tracker
	cfg      SimulatorConfig
	recorder Recorder
	logger   Logger
	draw     func() float64

	ctx    context.Context
	cancel context.CancelFunc

	// mu 保证 wg.Add 不与 Close 中的 wg.Wait 并发
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewSimulator creates a simulator. recorder may be nil.
func NewSimulator(tracker *Tracker, cfg SimulatorConfig, recorder Recorder, logger Logger) *Simulator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Simulator{
		tracker:  tracker,
		cfg:      cfg,
		recorder: recorder,
		logger:   logger,
		draw:     mrand.Float64,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Simulator) Tracker() *Tracker {
	return s.tracker
}

// Deposit 模拟隐私池存款
func (s *Simulator) Deposit(ctx context.Context, amount float64, level privacy.PrivacyLevel) (Transaction, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return Transaction{}, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	if _, err := privacy.ParsePrivacyLevel(string(level)); err != nil {
		return Transaction{}, err
	}

	return s.start(ctx, Transaction{
		Type:         TxDeposit,
		Amount:       amount,
		PrivacyLevel: string(level),
	})
}

// Withdraw 模拟从隐私池提现
func (s *Simulator) Withdraw(ctx context.Context, amount float64) (Transaction, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return Transaction{}, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}

	return s.start(ctx, Transaction{
		Type:   TxWithdrawal,
		Amount: amount,
	})
}

// GenerateStealthAddress returns a fresh address and the transaction that
// tracks its registration.
func (s *Simulator) GenerateStealthAddress(ctx context.Context) (Transaction, string, error) {
	address, err := NewStealthAddress()
	if err != nil {
		return Transaction{}, "", err
	}

	tx, err := s.start(ctx, Transaction{Type: TxStealthGen})
	if err != nil {
		return Transaction{}, "", err
	}
	return tx, address, nil
}

func (s *Simulator) start(ctx context.Context, tx Transaction) (Transaction, error) {
	if err := ctx.Err(); err != nil {
		return Transaction{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Transaction{}, ErrSimulatorClosed
	}
	s.wg.Add(1)
	s.mu.Unlock()

	tx.ID = uuid.NewString()
	tx.Status = StatusPending
	tx.Timestamp = time.Now()
	s.tracker.Add(tx)

	s.logger.Info("transaction submitted", "id", tx.ID, "type", tx.Type, "amount", tx.Amount)

	go s.run(tx)

	return tx, nil
}

func (s *Simulator) run(tx Transaction) {
	defer s.wg.Done()

	if !s.sleep(s.cfg.PendingDelay) {
		s.finish(tx, StatusError, "", "transaction cancelled")
		return
	}
	if _, err := s.tracker.SetStatus(tx.ID, StatusProcessing, "", ""); err != nil {
		// cleared while in flight
		return
	}

	if !s.sleep(s.cfg.ProcessingDelay) {
		s.finish(tx, StatusError, "", "transaction cancelled")
		return
	}

	if s.draw() < s.cfg.FailureRate {
		s.finish(tx, StatusError, "", "transaction rejected by network")
		return
	}
	s.finish(tx, StatusSuccess, MockTxHash(tx.ID, string(tx.Type), strconv.FormatFloat(tx.Amount, 'f', -1, 64)), "")
}

func (s *Simulator) sleep(d time.Duration) bool {
	if d <= 0 {
		return s.ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-s.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Simulator) finish(tx Transaction, status Status, txHash, errMsg string) {
	final, err := s.tracker.SetStatus(tx.ID, status, txHash, errMsg)
	if err != nil {
		return
	}

	if status == StatusError {
		s.logger.Error("transaction failed", "id", tx.ID, "reason", errMsg)
	} else {
		s.logger.Info("transaction confirmed", "id", tx.ID, "tx_hash", txHash)
	}

	if s.recorder == nil {
		return
	}

	// 使用独立 context，关闭时也要落库
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	record := &models.TransactionRecord{
		ID:           final.ID,
		TxType:       string(final.Type),
		Amount:       final.Amount,
		PrivacyLevel: final.PrivacyLevel,
		Status:       string(final.Status),
		TxHash:       final.TxHash,
		CreatedAt:    final.Timestamp,
	}
	if err := s.recorder.SaveTransaction(ctx, record); err != nil {
		s.logger.Error("failed to record transaction", "id", tx.ID, "error", err)
	}
}

// Close cancels in-flight transactions and waits for them to settle. New
// submissions fail with ErrSimulatorClosed. Close is safe to call more than once.
func (s *Simulator) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// Wait blocks until every in-flight transaction has settled.
func (s *Simulator) Wait() {
	s.wg.Wait()
}

const stealthAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewStealthAddress returns "0x" followed by 39 random base-36 characters.
// It is a display token, not a derived key.
func NewStealthAddress() (string, error) {
	buf := make([]byte, 39)
	base := big.NewInt(int64(len(stealthAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("failed to generate stealth address: %w", err)
		}
		buf[i] = stealthAlphabet[n.Int64()]
	}
	return "0x" + string(buf), nil
}

// MockTxHash 生成模拟交易哈希 (Keccak-256)
func MockTxHash(parts ...string) string {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{'\n'})
	}
	h.Write([]byte(strconv.FormatInt(time.Now().UnixNano(), 10)))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
