package pools

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// Status 交易状态
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// StatusAll matches every status in Tracker.List.
const StatusAll Status = "all"

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case "", StatusAll:
		return StatusAll, nil
	case StatusPending, StatusProcessing, StatusSuccess, StatusError:
		return st, nil
	default:
		return "", fmt.Errorf("unknown transaction status: %q", s)
	}
}

func (s Status) Final() bool {
	return s == StatusSuccess || s == StatusError
}

// TxType 交易类型
type TxType string

const (
	TxDeposit    TxType = "deposit"
	TxWithdrawal TxType = "withdrawal"
	TxStealthGen TxType = "stealth_gen"
)

// Label is the human readable transaction type.
func (t TxType) Label() string {
	switch t {
	case TxDeposit:
		return "Pool Deposit"
	case TxWithdrawal:
		return "Withdrawal"
	case TxStealthGen:
		return "Generate Stealth Address"
	default:
		return string(t)
	}
}

type Transaction struct {
	ID           string    `json:"id"`
	Type         TxType    `json:"type"`
	Amount       float64   `json:"amount,omitempty"`
	PrivacyLevel string    `json:"privacy_level,omitempty"`
	Status       Status    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	TxHash       string    `json:"tx_hash,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// Tracker keeps transactions in memory in insertion order. It is safe for
// concurrent use.
type Tracker struct {
	mu    sync.RWMutex
	order []string
	txs   map[string]*Transaction
}

func NewTracker() *Tracker {
	return &Tracker{txs: make(map[string]*Transaction)}
}

func (t *Tracker) Add(tx Transaction) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.txs[tx.ID]; !ok {
		t.order = append(t.order, tx.ID)
	}
	t.txs[tx.ID] = &tx
}

// SetStatus moves a transaction to status. Final statuses are sticky.
func (t *Tracker) SetStatus(id string, status Status, txHash, errMsg string) (Transaction, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tx, ok := t.txs[id]
	if !ok {
		return Transaction{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	if tx.Status.Final() {
		return *tx, nil
	}

	tx.Status = status
	if txHash != "" {
		tx.TxHash = txHash
	}
	if errMsg != "" {
		tx.ErrorMessage = errMsg
	}
	return *tx, nil
}

func (t *Tracker) Get(id string) (Transaction, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tx, ok := t.txs[id]
	if !ok {
		return Transaction{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	return *tx, nil
}

// List returns copies of the transactions with the given status, newest
// first. StatusAll returns everything.
func (t *Tracker) List(filter Status) []Transaction {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]Transaction, 0, len(t.order))
	for i := len(t.order) - 1; i >= 0; i-- {
		tx := t.txs[t.order[i]]
		if filter != StatusAll && tx.Status != filter {
			continue
		}
		result = append(result, *tx)
	}
	return result
}

// Counts 各状态的交易数量
func (t *Tracker) Counts() map[Status]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	counts := map[Status]int{
		StatusPending:    0,
		StatusProcessing: 0,
		StatusSuccess:    0,
		StatusError:      0,
	}
	for _, tx := range t.txs {
		counts[tx.Status]++
	}
	return counts
}

func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.order = nil
	t.txs = make(map[string]*Transaction)
}
