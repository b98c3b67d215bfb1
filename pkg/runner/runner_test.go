package runner

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/hokireceh/mozi-wallet-faucet/pkg/balance"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/logger"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/notify"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/retry"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/wallet"
)

func init() {
	_ = logger.InitLogger()
}

// mockWallet is a scriptable wallet.API for state-machine tests.
type mockWallet struct {
	claimFunc    func(ctx context.Context, accessToken string) (*wallet.ClaimOutcome, error)
	tokensFunc   func(ctx context.Context, accessToken string) ([]wallet.TokenBalance, error)
	transferFunc func(ctx context.Context, accessToken, to, value string, chainID int64) (string, error)
	refreshFunc  func(ctx context.Context, refreshToken string) (string, error)

	claimCalls    int
	tokensCalls   int
	transferCalls int
	refreshCalls  int
}

func (m *mockWallet) Claim(ctx context.Context, accessToken string) (*wallet.ClaimOutcome, error) {
	m.claimCalls++
	if m.claimFunc != nil {
		return m.claimFunc(ctx, accessToken)
	}
	return &wallet.ClaimOutcome{Status: wallet.ClaimSucceeded, TxHash: "0xabc"}, nil
}

func (m *mockWallet) Tokens(ctx context.Context, accessToken string) ([]wallet.TokenBalance, error) {
	m.tokensCalls++
	if m.tokensFunc != nil {
		return m.tokensFunc(ctx, accessToken)
	}
	return []wallet.TokenBalance{{Symbol: "MON", Balance: "1.0", IsNative: true}}, nil
}

func (m *mockWallet) Transfer(ctx context.Context, accessToken, to, value string, chainID int64) (string, error) {
	m.transferCalls++
	if m.transferFunc != nil {
		return m.transferFunc(ctx, accessToken, to, value, chainID)
	}
	return "0xfeed", nil
}

func (m *mockWallet) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	m.refreshCalls++
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx, refreshToken)
	}
	return "fresh-token", nil
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func testRunner(client wallet.API) *Runner {
	return NewRunner(client, notify.NewNotifier("", time.Second), Options{
		Receiver:    "0x103D1D8d46de2E7829Ad5FBe2D322c705B602780",
		ChainID:     10143,
		GasReserve:  balance.DefaultGasReserve,
		SettleDelay: 10 * time.Second,
		TokenSymbol: "MON",
		Retry: retry.Options{
			MaxAttempts: 3,
			Delay:       time.Millisecond,
			Sleep:       noSleep,
		},
		Sleep: noSleep,
	})
}

func unauthorized() error {
	return &wallet.APIError{StatusCode: http.StatusUnauthorized, Message: "jwt expired"}
}

// Scenario A: claim succeeds, balance 1.0, transfer succeeds; the cycle
// records both milestones.
func TestRunFullSweep(t *testing.T) {
	mock := &mockWallet{}
	var gotValue string
	mock.transferFunc = func(ctx context.Context, accessToken, to, value string, chainID int64) (string, error) {
		gotValue = value
		return "0xfeed", nil
	}

	res := testRunner(mock).Run(context.Background(), NewAccount("token-a", "refresh-a"))

	assert.True(t, res.Claimed)
	assert.Equal(t, "0xabc", res.ClaimTx)
	assert.True(t, res.Transferred)
	assert.Equal(t, "0xfeed", res.TransferTx)
	assert.True(t, res.AmountSent.Equal(decimal.RequireFromString("0.995")))
	assert.Equal(t, "995000000000000000", gotValue)
	assert.False(t, res.Aborted)
	assert.Equal(t, 1, mock.claimCalls)
	assert.Equal(t, 1, mock.transferCalls)
	assert.Equal(t, 0, mock.refreshCalls)
}

// Scenario B: claim not eligible, balance 0.003; no transfer call is made.
func TestRunNotEligibleTinyBalance(t *testing.T) {
	mock := &mockWallet{
		claimFunc: func(ctx context.Context, accessToken string) (*wallet.ClaimOutcome, error) {
			return &wallet.ClaimOutcome{Status: wallet.ClaimNotEligible}, nil
		},
		tokensFunc: func(ctx context.Context, accessToken string) ([]wallet.TokenBalance, error) {
			return []wallet.TokenBalance{{Symbol: "MON", Balance: "0.003", IsNative: true}}, nil
		},
	}

	res := testRunner(mock).Run(context.Background(), NewAccount("token-b", "refresh-b"))

	assert.False(t, res.Claimed)
	assert.True(t, res.NotEligible)
	assert.False(t, res.Transferred)
	assert.Equal(t, balance.SkipInsufficientGas, res.SkipReason)
	assert.Equal(t, 0, mock.transferCalls, "no transfer call below the gas reserve")
	assert.False(t, res.Aborted)
}

// Scenario C: claim unauthorized, refresh fails; the cycle aborts without a
// transfer attempt.
func TestRunRefreshFailureAborts(t *testing.T) {
	mock := &mockWallet{
		claimFunc: func(ctx context.Context, accessToken string) (*wallet.ClaimOutcome, error) {
			return nil, unauthorized()
		},
		refreshFunc: func(ctx context.Context, refreshToken string) (string, error) {
			return "", &wallet.APIError{StatusCode: http.StatusForbidden, Body: "nope"}
		},
	}

	res := testRunner(mock).Run(context.Background(), NewAccount("token-c", "refresh-c"))

	assert.True(t, res.Aborted)
	assert.False(t, res.Refreshed)
	assert.Equal(t, 1, mock.refreshCalls)
	assert.Equal(t, 0, mock.tokensCalls)
	assert.Equal(t, 0, mock.transferCalls)
}

// Bounded recovery: unauthorized, successful refresh, unauthorized again.
// The runner restarts exactly once with the new token and then gives up.
func TestRunAuthRecoveryIsBounded(t *testing.T) {
	var seenTokens []string
	mock := &mockWallet{
		claimFunc: func(ctx context.Context, accessToken string) (*wallet.ClaimOutcome, error) {
			seenTokens = append(seenTokens, accessToken)
			return nil, unauthorized()
		},
	}

	acc := NewAccount("stale-token", "refresh-ok")
	res := testRunner(mock).Run(context.Background(), acc)

	assert.True(t, res.Refreshed)
	assert.True(t, res.Aborted)
	assert.Equal(t, 1, mock.refreshCalls, "only one refresh per cycle")
	assert.Equal(t, 2, mock.claimCalls)
	assert.Equal(t, []string{"stale-token", "fresh-token"}, seenTokens)
	assert.Equal(t, "fresh-token", acc.AccessToken)
}

// Unauthorized during the transfer leg also reaches the recovery branch.
func TestRunUnauthorizedDuringTransfer(t *testing.T) {
	transferAttempts := 0
	mock := &mockWallet{
		transferFunc: func(ctx context.Context, accessToken, to, value string, chainID int64) (string, error) {
			transferAttempts++
			if accessToken == "fresh-token" {
				return "0xfeed", nil
			}
			return "", unauthorized()
		},
	}

	res := testRunner(mock).Run(context.Background(), NewAccount("stale-token", "refresh-ok"))

	assert.True(t, res.Refreshed)
	assert.True(t, res.Transferred)
	assert.False(t, res.Aborted)
	assert.Equal(t, 2, transferAttempts)
	// The restart re-enters from claiming, so the faucet is asked twice.
	assert.Equal(t, 2, mock.claimCalls)
}

func TestRunBalanceFetchFailureIsNonFatal(t *testing.T) {
	mock := &mockWallet{
		tokensFunc: func(ctx context.Context, accessToken string) ([]wallet.TokenBalance, error) {
			return nil, &wallet.APIError{StatusCode: http.StatusBadGateway}
		},
	}

	res := testRunner(mock).Run(context.Background(), NewAccount("token-d", "refresh-d"))

	assert.True(t, res.Claimed)
	assert.False(t, res.Transferred)
	assert.Equal(t, balance.SkipInsufficientGas, res.SkipReason)
	assert.False(t, res.Aborted, "zero balance is a clean skip, not an abort")
}

func TestRunClaimExhaustionAbortsBeforeTransfer(t *testing.T) {
	mock := &mockWallet{
		claimFunc: func(ctx context.Context, accessToken string) (*wallet.ClaimOutcome, error) {
			return nil, &wallet.APIError{StatusCode: http.StatusInternalServerError}
		},
	}

	res := testRunner(mock).Run(context.Background(), NewAccount("token-e", "refresh-e"))

	assert.True(t, res.Aborted)
	assert.Equal(t, 3, mock.claimCalls)
	assert.Equal(t, 0, mock.tokensCalls)
	assert.Equal(t, 0, mock.transferCalls)
}

func TestRunSkipPolicyEndsCycleWithoutRefresh(t *testing.T) {
	mock := &mockWallet{
		claimFunc: func(ctx context.Context, accessToken string) (*wallet.ClaimOutcome, error) {
			return nil, unauthorized()
		},
	}

	r := testRunner(mock)
	r.opts.Retry.OnUnauthorized = retry.Skip
	res := r.Run(context.Background(), NewAccount("token-f", "refresh-f"))

	assert.True(t, res.Aborted)
	assert.Equal(t, 0, mock.refreshCalls)
	assert.Equal(t, 1, mock.claimCalls)
}
