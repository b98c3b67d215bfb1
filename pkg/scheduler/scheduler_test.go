package scheduler

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/hokireceh/mozi-wallet-faucet/pkg/balance"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/config"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/logger"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/metrics"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/notify"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/retry"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/runner"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/wallet"
)

func init() {
	_ = logger.InitLogger()
}

// scriptedWallet fails every call for the tokens listed in badTokens and
// records the order accounts were worked in.
type scriptedWallet struct {
	mu        sync.Mutex
	order     []string
	badTokens map[string]bool
	inFlight  int
}

func (s *scriptedWallet) fails(token string) bool {
	return s.badTokens[token]
}

func (s *scriptedWallet) Claim(ctx context.Context, accessToken string) (*wallet.ClaimOutcome, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > 1 {
		panic("accounts processed concurrently")
	}
	s.order = append(s.order, accessToken)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.fails(accessToken) {
		return nil, &wallet.APIError{StatusCode: http.StatusInternalServerError, Body: "down"}
	}
	return &wallet.ClaimOutcome{Status: wallet.ClaimSucceeded, TxHash: "0xabc"}, nil
}

func (s *scriptedWallet) Tokens(ctx context.Context, accessToken string) ([]wallet.TokenBalance, error) {
	return []wallet.TokenBalance{{Symbol: "MON", Balance: "1.0", IsNative: true}}, nil
}

func (s *scriptedWallet) Transfer(ctx context.Context, accessToken, to, value string, chainID int64) (string, error) {
	return "0xfeed", nil
}

func (s *scriptedWallet) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return "fresh", nil
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func newTestScheduler(client wallet.API, pairs []*config.AccountPair, m *metrics.Metrics) *Scheduler {
	r := runner.NewRunner(client, notify.NewNotifier("", time.Second), runner.Options{
		Receiver:    "0x103D1D8d46de2E7829Ad5FBe2D322c705B602780",
		ChainID:     10143,
		GasReserve:  balance.DefaultGasReserve,
		SettleDelay: time.Millisecond,
		TokenSymbol: "MON",
		Retry:       retry.Options{MaxAttempts: 2, Delay: time.Millisecond, Sleep: noSleep},
		Sleep:       noSleep,
	})
	return New(r, pairs, config.Batch{}, m)
}

func pairsFor(tokens ...string) []*config.AccountPair {
	pairs := make([]*config.AccountPair, 0, len(tokens))
	for _, tok := range tokens {
		pairs = append(pairs, &config.AccountPair{AccessToken: tok, RefreshToken: "ref-" + tok})
	}
	return pairs
}

func TestRunBatchProcessesAllAccountsSequentially(t *testing.T) {
	client := &scriptedWallet{badTokens: map[string]bool{"tok-b": true}}
	m := metrics.New()
	sched := newTestScheduler(client, pairsFor("tok-a", "tok-b", "tok-c"), m)

	sched.RunBatch(context.Background())

	// The failing middle account never stops the batch.
	assert.GreaterOrEqual(t, len(client.order), 3)
	assert.Equal(t, "tok-a", client.order[0])
	assert.Equal(t, "tok-c", client.order[len(client.order)-1])

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ClaimsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ClaimsTotal.WithLabelValues("failed")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.TransfersTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CyclesTotal.WithLabelValues("aborted")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CyclesTotal.WithLabelValues("completed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BatchesTotal))
	assert.InDelta(t, 1.99, testutil.ToFloat64(m.AmountSweptTotal), 0.001)
}

func TestRunBatchWithoutMetrics(t *testing.T) {
	client := &scriptedWallet{}
	sched := newTestScheduler(client, pairsFor("tok-a"), nil)
	sched.RunBatch(context.Background())
	assert.Len(t, client.order, 1)
}

func TestSinglePassStartReturns(t *testing.T) {
	client := &scriptedWallet{}
	sched := newTestScheduler(client, pairsFor("tok-a", "tok-b"), nil)

	assert.NoError(t, sched.Start())
	assert.False(t, sched.IsRunning())
	assert.Len(t, client.order, 2)
}

func TestGetInfo(t *testing.T) {
	client := &scriptedWallet{}
	pairs := pairsFor("tok-a", "tok-b", "tok-c")

	sched := newTestScheduler(client, pairs, nil)
	info := sched.GetInfo()
	assert.False(t, info.Running)
	assert.False(t, info.Continuous)
	assert.Equal(t, 3, info.Accounts)
}

func TestContinuousStartSchedules(t *testing.T) {
	client := &scriptedWallet{}
	r := runner.NewRunner(client, notify.NewNotifier("", time.Second), runner.Options{
		Receiver:    "0x103D1D8d46de2E7829Ad5FBe2D322c705B602780",
		ChainID:     10143,
		GasReserve:  balance.DefaultGasReserve,
		SettleDelay: time.Millisecond,
		TokenSymbol: "MON",
		Retry:       retry.Options{MaxAttempts: 1, Delay: time.Millisecond, Sleep: noSleep},
		Sleep:       noSleep,
	})
	sched := New(r, pairsFor("tok-a"), config.Batch{Continuous: true, Schedule: "@every 1h"}, nil)

	assert.NoError(t, sched.Start())
	assert.True(t, sched.IsRunning())

	info := sched.GetInfo()
	assert.True(t, info.Continuous)
	assert.Equal(t, "@every 1h", info.Schedule)
	assert.False(t, info.NextRun.IsZero())

	sched.Stop()
	assert.False(t, sched.IsRunning())
}
