package wallet

import (
	"strings"
)

// ZeroAddress is the contract-address sentinel some deployments use to mark
// the chain's native asset in the token list.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// Matcher selects the native/reward token from a balance list. The service
// has shipped two shapes of the list, so the strategy is configurable.
type Matcher func(TokenBalance) bool

// MatchBySymbol matches the token whose symbol equals symbol (case-insensitive).
func MatchBySymbol(symbol string) Matcher {
	return func(t TokenBalance) bool {
		return strings.EqualFold(t.Symbol, symbol)
	}
}

// MatchNative matches the token flagged native or carrying the zero-address
// contract sentinel.
func MatchNative() Matcher {
	return func(t TokenBalance) bool {
		return t.IsNative || strings.EqualFold(t.ContractAddress, ZeroAddress)
	}
}

// FindToken returns the first token accepted by match.
func FindToken(tokens []TokenBalance, match Matcher) (TokenBalance, bool) {
	for _, t := range tokens {
		if match(t) {
			return t, true
		}
	}
	return TokenBalance{}, false
}
