package validation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/hokireceh/mozi-wallet-faucet/pkg/config"
)

// ValidationError represents a validation error with a specific field and message
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors holds multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var errMsgs []string
	for _, err := range e {
		errMsgs = append(errMsgs, err.Error())
	}
	return strings.Join(errMsgs, "; ")
}

// ConfigValidator handles validation of the entire configuration
type ConfigValidator struct{}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateConfig validates the entire configuration schema. Any error here is
// fatal: the batch must not start on a broken configuration.
func (v *ConfigValidator) ValidateConfig(cfg *config.Schema) error {
	var allErrors ValidationErrors

	allErrors = append(allErrors, v.validateGlobal(&cfg.Global)...)
	allErrors = append(allErrors, v.validateAPI(&cfg.API)...)
	allErrors = append(allErrors, v.validateSweep(&cfg.Sweep)...)
	allErrors = append(allErrors, v.validateRetry(&cfg.Retry)...)
	allErrors = append(allErrors, v.validateAccounts(cfg.Accounts)...)

	if len(allErrors) > 0 {
		return allErrors
	}
	return nil
}

func (v *ConfigValidator) validateGlobal(global *config.Global) ValidationErrors {
	var errors ValidationErrors

	if global.MetricsAddr == "" {
		errors = append(errors, ValidationError{
			Field:   "global.metricsAddr",
			Message: "cannot be empty",
		})
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(global.LogLevel)] {
		errors = append(errors, ValidationError{
			Field:   "global.logLevel",
			Message: "must be one of: debug, info, warn, error",
		})
	}

	return errors
}

func (v *ConfigValidator) validateAPI(api *config.API) ValidationErrors {
	var errors ValidationErrors

	if api.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "api.baseUrl",
			Message: "cannot be empty",
		})
		return errors
	}

	parsedURL, err := url.Parse(api.BaseURL)
	if err != nil {
		errors = append(errors, ValidationError{
			Field:   "api.baseUrl",
			Message: "invalid URL",
		})
		return errors
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, ValidationError{
			Field:   "api.baseUrl",
			Message: "URL scheme must be either http or https",
		})
	}

	return errors
}

func (v *ConfigValidator) validateSweep(sweep *config.Sweep) ValidationErrors {
	var errors ValidationErrors

	if sweep.Receiver == "" {
		errors = append(errors, ValidationError{
			Field:   "sweep.receiver",
			Message: "receiver address cannot be empty",
		})
	} else if !common.IsHexAddress(sweep.Receiver) {
		errors = append(errors, ValidationError{
			Field:   "sweep.receiver",
			Message: "invalid Ethereum address format",
		})
	}

	if sweep.ChainID <= 0 {
		errors = append(errors, ValidationError{
			Field:   "sweep.chainId",
			Message: "must be a positive network identifier",
		})
	}

	if sweep.MatchBy != "symbol" && sweep.MatchBy != "native" {
		errors = append(errors, ValidationError{
			Field:   "sweep.matchBy",
			Message: "must be either 'symbol' or 'native'",
		})
	}
	if sweep.MatchBy == "symbol" && sweep.TokenSymbol == "" {
		errors = append(errors, ValidationError{
			Field:   "sweep.tokenSymbol",
			Message: "cannot be empty when matching by symbol",
		})
	}

	if reserve, err := decimal.NewFromString(sweep.GasReserve); err != nil {
		errors = append(errors, ValidationError{
			Field:   "sweep.gasReserve",
			Message: "must be a decimal number",
		})
	} else if reserve.IsNegative() {
		errors = append(errors, ValidationError{
			Field:   "sweep.gasReserve",
			Message: "cannot be negative",
		})
	}

	return errors
}

func (v *ConfigValidator) validateRetry(retry *config.Retry) ValidationErrors {
	var errors ValidationErrors

	if retry.MaxAttempts < 1 {
		errors = append(errors, ValidationError{
			Field:   "retry.maxAttempts",
			Message: "must be at least 1",
		})
	}
	if retry.OnUnauthorized != config.UnauthorizedRefresh && retry.OnUnauthorized != config.UnauthorizedSkip {
		errors = append(errors, ValidationError{
			Field:   "retry.onUnauthorized",
			Message: "must be either 'refresh' or 'skip'",
		})
	}

	return errors
}

func (v *ConfigValidator) validateAccounts(accounts []*config.AccountPair) ValidationErrors {
	var errors ValidationErrors

	if len(accounts) == 0 {
		errors = append(errors, ValidationError{
			Field:   "accounts",
			Message: "at least one account pair must be specified",
		})
		return errors
	}

	for i, pair := range accounts {
		if pair.AccessToken == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("accounts[%d].accessToken", i),
				Message: "cannot be empty",
			})
		}
		if pair.RefreshToken == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("accounts[%d].refreshToken", i),
				Message: "cannot be empty",
			})
		}
	}

	return errors
}
