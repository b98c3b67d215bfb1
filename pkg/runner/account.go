package runner

import (
	"github.com/golang-jwt/jwt/v5"
)

// Account is one credential pair being worked. AccessToken is replaced at
// most once per cycle, after a successful refresh.
type Account struct {
	Name         string
	AccessToken  string
	RefreshToken string
}

func NewAccount(accessToken, refreshToken string) *Account {
	return &Account{
		Name:         usernameFromToken(accessToken),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
}

// usernameFromToken extracts the username claim embedded in the access token.
// The token is not verified here; it only provides a display identity. On any
// decode failure the truncated token prefix is used instead.
func usernameFromToken(token string) string {
	fallback := token
	if len(fallback) > 6 {
		fallback = fallback[:6]
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return fallback
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return fallback
	}
	userData, ok := claims["userData"].(map[string]interface{})
	if !ok {
		return fallback
	}
	if username, ok := userData["username"].(string); ok && username != "" {
		return username
	}
	return fallback
}
