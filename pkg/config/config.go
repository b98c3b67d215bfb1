package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

type Schema struct {
	Global   Global         `yaml:"global"`
	API      API            `yaml:"api"`
	Sweep    Sweep          `yaml:"sweep"`
	Retry    Retry          `yaml:"retry"`
	Webhook  Webhook        `yaml:"webhook"`
	Batch    Batch          `yaml:"batch"`
	Accounts []*AccountPair `yaml:"accounts"`
}

type Global struct {
	Environment string `yaml:"environment"`
	MetricsAddr string `yaml:"metricsAddr"`
	LogLevel    string `yaml:"logLevel"`
}

// API describes the remote wallet-service endpoint.
type API struct {
	BaseURL    string `yaml:"baseUrl"`
	BaseURLEnv string `yaml:"baseUrlEnv"`
	Timeout    int    `yaml:"timeout"` // Timeout in seconds, default 30
}

// Sweep describes the transfer leg: where claimed funds go and how the
// native token is identified in the balance list.
type Sweep struct {
	Receiver    string `yaml:"receiver"`
	ReceiverEnv string `yaml:"receiverEnv"`
	ChainID     int64  `yaml:"chainId"`
	TokenSymbol string `yaml:"tokenSymbol"`
	MatchBy     string `yaml:"matchBy"`     // "symbol" or "native"
	GasReserve  string `yaml:"gasReserve"`  // Decimal string, e.g. "0.005"
	SettleDelay int    `yaml:"settleDelay"` // Seconds to wait after a claim before reading the balance
}

type Retry struct {
	MaxAttempts    int    `yaml:"maxAttempts"`
	Delay          int    `yaml:"delay"` // Seconds between attempts
	OnUnauthorized string `yaml:"onUnauthorized"`
}

// OnUnauthorized policy values.
const (
	UnauthorizedRefresh = "refresh"
	UnauthorizedSkip    = "skip"
)

type Webhook struct {
	URL    string `yaml:"url"`
	URLEnv string `yaml:"urlEnv"`
}

type Batch struct {
	Continuous bool   `yaml:"continuous"`
	Schedule   string `yaml:"schedule"` // Cron expression, e.g. "@every 24h"
}

type AccountPair struct {
	AccessToken     string `yaml:"accessToken"`
	AccessTokenEnv  string `yaml:"accessTokenEnv"`
	RefreshToken    string `yaml:"refreshToken"`
	RefreshTokenEnv string `yaml:"refreshTokenEnv"`
}

func (s *Schema) Normalize() error {
	if s.Global.LogLevel == "" {
		s.Global.LogLevel = "info"
	}
	if s.Global.MetricsAddr == "" {
		s.Global.MetricsAddr = ":2112"
	}
	if err := s.API.Normalize(); err != nil {
		return fmt.Errorf("failed to normalize api config: %w", err)
	}
	if err := s.Sweep.Normalize(); err != nil {
		return fmt.Errorf("failed to normalize sweep config: %w", err)
	}
	s.Retry.Normalize()
	s.Webhook.Normalize()
	s.Batch.Normalize()
	for i, pair := range s.Accounts {
		if err := pair.Normalize(); err != nil {
			return fmt.Errorf("failed to normalize account pair %d: %w", i, err)
		}
	}
	return nil
}

func (a *API) Normalize() error {
	if a.BaseURLEnv != "" {
		envValue := os.Getenv(a.BaseURLEnv)
		if envValue != "" {
			a.BaseURL = envValue
		}
	}
	if a.BaseURL == "" {
		a.BaseURL = "https://api.mozi.finance"
	}
	a.BaseURL = strings.TrimRight(a.BaseURL, "/")
	if a.Timeout == 0 {
		a.Timeout = 30 // Default timeout of 30 seconds
	}
	return nil
}

func (sw *Sweep) Normalize() error {
	if sw.ReceiverEnv != "" {
		envValue := os.Getenv(sw.ReceiverEnv)
		if envValue != "" {
			sw.Receiver = envValue
		}
	}
	if sw.ChainID == 0 {
		sw.ChainID = 10143
	}
	if sw.TokenSymbol == "" {
		sw.TokenSymbol = "MON"
	}
	if sw.MatchBy == "" {
		sw.MatchBy = "symbol"
	}
	if sw.GasReserve == "" {
		sw.GasReserve = "0.005"
	}
	if sw.SettleDelay == 0 {
		sw.SettleDelay = 10
	}
	return nil
}

func (r *Retry) Normalize() {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 3
	}
	if r.Delay == 0 {
		r.Delay = 5
	}
	if r.OnUnauthorized == "" {
		r.OnUnauthorized = UnauthorizedRefresh
	}
}

func (w *Webhook) Normalize() {
	if w.URLEnv != "" {
		envValue := os.Getenv(w.URLEnv)
		if envValue != "" {
			w.URL = envValue
		}
	}
}

func (b *Batch) Normalize() {
	if b.Schedule == "" {
		b.Schedule = "@every 24h"
	}
}

func (p *AccountPair) Normalize() error {
	if p.AccessTokenEnv != "" {
		envValue := os.Getenv(p.AccessTokenEnv)
		if envValue != "" {
			p.AccessToken = envValue
		}
	}
	if p.RefreshTokenEnv != "" {
		envValue := os.Getenv(p.RefreshTokenEnv)
		if envValue != "" {
			p.RefreshToken = envValue
		}
	}
	p.AccessToken = strings.TrimSpace(p.AccessToken)
	p.RefreshToken = strings.TrimSpace(p.RefreshToken)
	return nil
}

func ReadConfigWithError(r io.Reader) (*Schema, error) {
	config := &Schema{}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := config.Normalize(); err != nil {
		return nil, fmt.Errorf("failed to normalize config: %w", err)
	}
	return config, nil
}
