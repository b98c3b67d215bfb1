package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hokireceh/mozi-wallet-faucet/pkg/logger"
)

const (
	// SummaryLimit bounds the size of one summary alert payload.
	SummaryLimit = 4000

	milestoneColor = 0x00ff99
	summaryColor   = 0x3498db

	explorerTxURL = "https://testnet.monadexplorer.com/tx/"
)

// Notifier posts best-effort alerts to a webhook. Every failure is swallowed
// and logged to the process log only; alerting must never influence the
// pipeline outcome.
type Notifier struct {
	webhookURL string
	username   string
	httpClient *http.Client
}

type embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
	Footer      footer `json:"footer"`
}

type footer struct {
	Text string `json:"text"`
}

type webhookPayload struct {
	Username string  `json:"username"`
	Embeds   []embed `json:"embeds"`
}

func NewNotifier(webhookURL string, timeout time.Duration) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		username:   "Mozi Faucet Bot",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Enabled reports whether alerting is active. A missing or non-https URL
// silently disables it.
func (n *Notifier) Enabled() bool {
	return strings.HasPrefix(n.webhookURL, "https://")
}

// Milestone fires an immediate out-of-band alert for a key event such as a
// claim or transfer success. txHash, when set, is rendered as an explorer link.
func (n *Notifier) Milestone(ctx context.Context, account, title, message, txHash string) {
	if !n.Enabled() {
		return
	}
	description := message
	if txHash != "" {
		description = fmt.Sprintf("%s\n\n[View TX](%s%s)", message, explorerTxURL, txHash)
	}
	n.post(ctx, webhookPayload{
		Username: n.username,
		Embeds: []embed{{
			Title:       title,
			Description: description,
			Color:       milestoneColor,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			Footer:      footer{Text: fmt.Sprintf("Account %s - Mozi Watchdog", account)},
		}},
	})
}

// FlushSummary emits the whole cycle log of one account as a single alert.
func (n *Notifier) FlushSummary(ctx context.Context, buf *Buffer) {
	if !n.Enabled() || buf.Len() == 0 {
		return
	}
	n.post(ctx, webhookPayload{
		Username: n.username,
		Embeds: []embed{{
			Title:       fmt.Sprintf("Cycle summary: %s", buf.Account()),
			Description: buf.Join(SummaryLimit),
			Color:       summaryColor,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			Footer:      footer{Text: "Mozi Watchdog"},
		}},
	})
}

func (n *Notifier) post(ctx context.Context, payload webhookPayload) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		logger.Errorf("webhook: failed to marshal payload: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		logger.Errorf("webhook: failed to create request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		logger.Errorf("webhook: failed to post alert: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		logger.Errorf("webhook: alert rejected with status %d: %s", resp.StatusCode, string(body))
	}
}
