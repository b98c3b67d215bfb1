package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is an HTTP client for the wallet-service API. Every authenticated
// call takes the bearer token explicitly because the token can be swapped
// mid-cycle after a refresh.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a new wallet-service client
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// ClaimStatus classifies the result of a faucet claim.
type ClaimStatus int

const (
	ClaimFailed ClaimStatus = iota
	ClaimSucceeded
	ClaimNotEligible
	ClaimUnexpected
)

// ClaimOutcome is the tagged result of a claim operation.
type ClaimOutcome struct {
	Status        ClaimStatus
	TxHash        string
	NextRequestAt string // Set when the service reports the cooldown end
	Payload       string // Raw payload for unexpected responses
}

type claimResponse struct {
	Result              string `json:"result"`
	TxHash              string `json:"txHash"`
	Message             string `json:"message"`
	NextFaucetRequestAt string `json:"nextFaucetRequestAt"`
}

// Claim requests a faucet reward for the account identified by accessToken.
// A cooldown rejection surfaces as ClaimNotEligible, not as an error; other
// unrecognized 2xx payloads surface as ClaimUnexpected together with an
// *APIError so retry accounting sees a failed attempt.
func (c *Client) Claim(ctx context.Context, accessToken string) (*ClaimOutcome, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/faucet", accessToken, struct{}{})
	if err != nil {
		return nil, err
	}

	var resp claimResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal claim response: %w", err)
	}

	switch {
	case resp.Result == "success" && resp.TxHash != "":
		return &ClaimOutcome{Status: ClaimSucceeded, TxHash: resp.TxHash}, nil
	case resp.Message == notEligibleMessage:
		return &ClaimOutcome{Status: ClaimNotEligible, NextRequestAt: resp.NextFaucetRequestAt}, nil
	default:
		outcome := &ClaimOutcome{Status: ClaimUnexpected, Payload: string(body)}
		return outcome, &APIError{StatusCode: http.StatusOK, Body: string(body)}
	}
}

// TokenBalance is one entry of the wallet token list. Balance stays a string
// so the caller can parse it into a decimal without a float round-trip.
type TokenBalance struct {
	Symbol          string `json:"symbol"`
	Balance         string `json:"balance"`
	IsNative        bool   `json:"isNative"`
	ContractAddress string `json:"contractAddress"`
}

type tokensResponse struct {
	Result struct {
		Data []TokenBalance `json:"data"`
	} `json:"result"`
}

// Tokens fetches the wallet's token balances.
func (c *Client) Tokens(ctx context.Context, accessToken string) ([]TokenBalance, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/wallet-data/tokens", accessToken, nil)
	if err != nil {
		return nil, err
	}

	var resp tokensResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tokens response: %w", err)
	}
	return resp.Result.Data, nil
}

type transferRequest struct {
	To      string `json:"to"`
	Value   string `json:"value"`
	ChainID int64  `json:"chainId"`
}

type transferResponse struct {
	Status string `json:"status"`
	Data   string `json:"data"`
}

// Transfer sends value (a minor-unit integer string) to the receiver address
// and returns the transaction reference reported by the service.
func (c *Client) Transfer(ctx context.Context, accessToken, to, value string, chainID int64) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/wallet/tx/send", accessToken, transferRequest{
		To:      to,
		Value:   value,
		ChainID: chainID,
	})
	if err != nil {
		return "", err
	}

	var resp transferResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal transfer response: %w", err)
	}
	if resp.Status != "success" {
		return "", &APIError{StatusCode: http.StatusOK, Body: string(body)}
	}
	return resp.Data, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// RefreshToken exchanges a refresh credential for a fresh access token. One
// attempt only; the caller decides what a failure means for the cycle.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/auth/refresh-token", "", refreshRequest{
		RefreshToken: refreshToken,
	})
	if err != nil {
		return "", err
	}

	var resp refreshResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal refresh response: %w", err)
	}
	if resp.AccessToken == "" {
		return "", &APIError{StatusCode: http.StatusOK, Message: "empty access token in refresh response", Body: string(body)}
	}
	return resp.AccessToken, nil
}

// do performs one request and returns the response body. Non-2xx responses
// become an *APIError carrying the server-reported message if the body is a
// JSON object with one.
func (c *Client) do(ctx context.Context, method, path, accessToken string, payload any) ([]byte, error) {
	url := c.baseURL + path

	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		var errBody struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &errBody) == nil {
			apiErr.Message = errBody.Message
		}
		return nil, apiErr
	}

	return body, nil
}
