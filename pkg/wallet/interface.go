package wallet

import (
	"context"
)

// API defines the interface for the wallet-service client.
type API interface {
	Claim(ctx context.Context, accessToken string) (*ClaimOutcome, error)
	Tokens(ctx context.Context, accessToken string) ([]TokenBalance, error)
	Transfer(ctx context.Context, accessToken, to, value string, chainID int64) (string, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}
