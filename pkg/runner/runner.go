package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hokireceh/mozi-wallet-faucet/pkg/balance"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/logger"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/notify"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/retry"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/wallet"
)

// State names the stages of one account-cycle.
type State int

const (
	StateClaiming State = iota
	StateWaiting
	StateCheckingBalance
	StateTransferring
	StateAuthRecovering
	StateSummarizing
)

func (s State) String() string {
	switch s {
	case StateClaiming:
		return "claiming"
	case StateWaiting:
		return "waiting"
	case StateCheckingBalance:
		return "checking-balance"
	case StateTransferring:
		return "transferring"
	case StateAuthRecovering:
		return "auth-recovering"
	case StateSummarizing:
		return "summarizing"
	default:
		return "unknown"
	}
}

// CycleResult records what one account-cycle did; the scheduler aggregates
// these into batch metrics and logs.
type CycleResult struct {
	Account     string
	Claimed     bool
	ClaimTx     string
	NotEligible bool
	Transferred bool
	TransferTx  string
	AmountSent  decimal.Decimal
	SkipReason  balance.SkipReason
	Refreshed   bool
	Aborted     bool
	Duration    time.Duration
}

// Options configures a Runner.
type Options struct {
	Receiver    string
	ChainID     int64
	GasReserve  decimal.Decimal
	SettleDelay time.Duration
	Retry       retry.Options
	Matcher     wallet.Matcher
	TokenSymbol string

	// Sleep overrides the post-claim settle wait; tests use it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Runner drives the per-account state machine: claim, wait, balance check,
// transfer, summary, with a single bounded auth-recovery restart. No failure
// escapes the account scope; every path flushes the summary.
type Runner struct {
	client   wallet.API
	notifier *notify.Notifier
	opts     Options
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewRunner(client wallet.API, notifier *notify.Notifier, opts Options) *Runner {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		}
	}
	if opts.Matcher == nil {
		opts.Matcher = wallet.MatchBySymbol(opts.TokenSymbol)
	}
	return &Runner{
		client:   client,
		notifier: notifier,
		opts:     opts,
		sleep:    sleep,
	}
}

// Run executes one full cycle for acc. The access token may be replaced
// exactly once: on the first unauthorized rejection the runner refreshes the
// token and restarts from claiming; a second rejection ends the cycle.
func (r *Runner) Run(ctx context.Context, acc *Account) *CycleResult {
	ctx = logger.WithAccount(ctx, acc.Name)
	buf := notify.NewBuffer(acc.Name)
	res := &CycleResult{Account: acc.Name}
	start := time.Now()

	logger.Infof("processing account %s", acc.Name)

	restarted := false
	for {
		err := r.cycle(ctx, acc, buf, res)
		if err == nil {
			break
		}
		if !wallet.IsUnauthorized(err) {
			// cycle only surfaces unauthorized errors; anything else is a bug
			// in the step handling, still contained to this account.
			r.log(ctx, buf, "unexpected cycle error: %v", err)
			res.Aborted = true
			break
		}
		if restarted {
			r.log(ctx, buf, "token rejected again after refresh, aborting cycle")
			res.Aborted = true
			break
		}
		newToken := r.recoverAuth(ctx, acc, buf)
		if newToken == "" {
			res.Aborted = true
			break
		}
		acc.AccessToken = newToken
		res.Refreshed = true
		restarted = true
		r.log(ctx, buf, "restarting cycle with refreshed token")
	}

	// Summarizing: flush is best-effort and unconditional.
	logger.Debugf("account %s entering state %s", acc.Name, StateSummarizing)
	r.notifier.FlushSummary(ctx, buf)
	res.Duration = time.Since(start)
	return res
}

// cycle walks claiming through transferring once. It returns an error only
// for an unauthorized rejection that the caller may recover from; every other
// outcome is folded into res and reaches the summary normally.
func (r *Runner) cycle(ctx context.Context, acc *Account, buf *notify.Buffer, res *CycleResult) error {
	// Claiming
	logger.Debugf("account %s entering state %s", acc.Name, StateClaiming)
	claim, err := retry.Do(ctx, buf, r.opts.Retry, func(ctx context.Context) (*wallet.ClaimOutcome, error) {
		return r.client.Claim(ctx, acc.AccessToken)
	})
	if err != nil {
		return err
	}
	switch {
	case claim.OK && claim.Value.Status == wallet.ClaimSucceeded:
		res.Claimed = true
		res.ClaimTx = claim.Value.TxHash
		r.log(ctx, buf, "faucet claimed, tx: %s", claim.Value.TxHash)
		r.notifier.Milestone(ctx, acc.Name, "Faucet Claimed", "Faucet claim succeeded.", claim.Value.TxHash)
	case claim.OK && claim.Value.Status == wallet.ClaimNotEligible:
		res.NotEligible = true
		if claim.Value.NextRequestAt != "" {
			r.log(ctx, buf, "already claimed, next claim at %s", claim.Value.NextRequestAt)
		} else {
			r.log(ctx, buf, "already claimed, skipping faucet")
		}
	case claim.NotEligible:
		res.NotEligible = true
	case claim.Skipped:
		res.Aborted = true
		return nil
	case claim.Exhausted:
		// Claim ineligibility does not block the transfer attempt, but an
		// exhausted claim aborts the cycle.
		res.Aborted = true
		return nil
	}

	// Waiting: unconditional settle delay, not an error-recovery wait.
	logger.Debugf("account %s entering state %s", acc.Name, StateWaiting)
	if err := r.sleep(ctx, r.opts.SettleDelay); err != nil {
		r.log(ctx, buf, "settle wait interrupted: %v", err)
	}

	// CheckingBalance: any failure degrades to a zero balance.
	logger.Debugf("account %s entering state %s", acc.Name, StateCheckingBalance)
	snap, err := r.checkBalance(ctx, acc, buf)
	if err != nil {
		return err
	}

	// Transferring
	logger.Debugf("account %s entering state %s", acc.Name, StateTransferring)
	decision := balance.Decide(snap, r.opts.GasReserve)
	switch decision.Skip {
	case balance.SkipInsufficientGas:
		res.SkipReason = decision.Skip
		r.log(ctx, buf, "native balance below gas reserve, cannot transfer")
		return nil
	case balance.SkipNothingToSend:
		res.SkipReason = decision.Skip
		r.log(ctx, buf, "nothing left to send above the gas reserve")
		return nil
	}

	transfer, err := retry.Do(ctx, buf, r.opts.Retry, func(ctx context.Context) (string, error) {
		return r.client.Transfer(ctx, acc.AccessToken, r.opts.Receiver, decision.MinorUnits, r.opts.ChainID)
	})
	if err != nil {
		return err
	}
	switch {
	case transfer.OK:
		res.Transferred = true
		res.TransferTx = transfer.Value
		res.AmountSent = decision.Amount
		r.log(ctx, buf, "sent %s %s to %s", decision.Amount.String(), r.opts.TokenSymbol, r.opts.Receiver)
		r.notifier.Milestone(ctx, acc.Name, "Transfer Sent",
			fmt.Sprintf("Sent %s %s to %s", decision.Amount.String(), r.opts.TokenSymbol, r.opts.Receiver),
			transfer.Value)
	case transfer.Skipped, transfer.Exhausted:
		res.Aborted = true
	}
	return nil
}

// checkBalance reads the token list and extracts the native balance. Every
// failure other than an unauthorized rejection returns a zero snapshot.
func (r *Runner) checkBalance(ctx context.Context, acc *Account, buf *notify.Buffer) (balance.Snapshot, error) {
	tokens, err := r.client.Tokens(ctx, acc.AccessToken)
	if err != nil {
		if wallet.IsUnauthorized(err) {
			return balance.Snapshot{}, err
		}
		r.log(ctx, buf, "balance check failed: %v", err)
		return balance.Snapshot{Mon: decimal.Zero, Native: decimal.Zero}, nil
	}

	token, found := wallet.FindToken(tokens, r.opts.Matcher)
	if !found {
		r.log(ctx, buf, "no %s token in wallet, treating balance as zero", r.opts.TokenSymbol)
		return balance.Snapshot{Mon: decimal.Zero, Native: decimal.Zero}, nil
	}

	bal, err := decimal.NewFromString(token.Balance)
	if err != nil {
		r.log(ctx, buf, "unparseable balance %q, treating as zero", token.Balance)
		return balance.Snapshot{Mon: decimal.Zero, Native: decimal.Zero}, nil
	}

	r.log(ctx, buf, "%s balance: %s", r.opts.TokenSymbol, bal.String())
	return balance.Snapshot{Mon: bal, Native: bal}, nil
}

// recoverAuth is the single-attempt token exchange. It never retries and does
// not mutate the account; the caller swaps the token in.
func (r *Runner) recoverAuth(ctx context.Context, acc *Account, buf *notify.Buffer) string {
	logger.Debugf("account %s entering state %s", acc.Name, StateAuthRecovering)
	r.log(ctx, buf, "token expired, attempting refresh")

	newToken, err := r.client.RefreshToken(ctx, acc.RefreshToken)
	if err != nil {
		var apiErr *wallet.APIError
		if errors.As(err, &apiErr) {
			r.log(ctx, buf, "token refresh failed: status %d %s", apiErr.StatusCode, apiErr.Body)
		} else {
			r.log(ctx, buf, "token refresh failed: %v", err)
		}
		return ""
	}
	r.log(ctx, buf, "token refreshed")
	return newToken
}

// log writes one line to both the process log and the account buffer.
func (r *Runner) log(ctx context.Context, buf *notify.Buffer, format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	logger.InfoContext(ctx, line)
	buf.Append(line)
}
