package defi

import (
	"context"
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hashPattern = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

func TestAllMarkets(t *testing.T) {
	m := AllMarkets()
	require.Len(t, m.Lending, 3)
	require.Len(t, m.Staking, 3)
	require.Len(t, m.Farming, 3)

	assert.Equal(t, "ETH", m.Lending[0].Asset)
	assert.Equal(t, 5.8, m.Lending[0].BorrowAPY)
	assert.Equal(t, 12.3, m.Staking[1].APY)
	assert.Equal(t, "90 days", m.Staking[2].LockUp)
	assert.Equal(t, "MASK-ETH", m.Farming[2].Pair)
	for _, f := range m.Farming {
		assert.Equal(t, "MASK + Trading Fees", f.Rewards)
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" Stake ")
	require.NoError(t, err)
	assert.Equal(t, ActionStake, a)

	_, err = ParseAction("flashloan")
	assert.Error(t, err)
}

func TestDesk_Execute(t *testing.T) {
	d := NewDesk()
	ctx := context.Background()

	tests := []struct {
		name    string
		action  Action
		market  string
		amount  float64
		market2 string
		message string
		wantErr error
	}{
		{name: "supply", action: ActionSupply, market: "usdc", amount: 1000, market2: "USDC", message: "Supplied 1000 USDC at 4.5% APY"},
		{name: "borrow", action: ActionBorrow, market: "ETH", amount: 1.25, market2: "ETH", message: "Borrowed 1.25 ETH at 5.8% APY"},
		{name: "stake", action: ActionStake, market: "privacy staking pool", amount: 0.5, market2: "Privacy Staking Pool", message: "Staked 0.5 ETH in Privacy Staking Pool"},
		{name: "farm", action: ActionFarm, market: "wbtc-eth", amount: 2500, market2: "WBTC-ETH", message: "Added 2500 USD liquidity to WBTC-ETH (TVL $28,000,000)"},
		{name: "unknown lending", action: ActionSupply, market: "DOGE", amount: 1, wantErr: ErrUnknownMarket},
		{name: "unknown pair", action: ActionFarm, market: "ETH-DAI", amount: 1, wantErr: ErrUnknownMarket},
		{name: "zero amount", action: ActionBorrow, market: "ETH", amount: 0, wantErr: ErrInvalidAmount},
		{name: "negative amount", action: ActionSupply, market: "ETH", amount: -5, wantErr: ErrInvalidAmount},
		{name: "nan amount", action: ActionFarm, market: "ETH-USDC", amount: math.NaN(), wantErr: ErrInvalidAmount},
		{name: "below minimum stake", action: ActionStake, market: "ETH 2.0 Staking", amount: 1, wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := d.Execute(ctx, tt.action, tt.market, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.action, r.Action)
			assert.Equal(t, tt.market2, r.Market)
			assert.Equal(t, tt.message, r.Message)
			assert.Regexp(t, hashPattern, r.TxHash)
			assert.False(t, r.Timestamp.IsZero())
		})
	}
}

func TestDesk_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDesk().Supply(ctx, "ETH", 1)
	assert.ErrorIs(t, err, context.Canceled)
}
