package transport

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenParser only decodes; signatures are the backend's business
var tokenParser = jwt.NewParser(jwt.WithPaddingAllowed())

// TryDecodeTokenExpiry reads the exp claim of a three-part token without
// verifying it. Only the middle segment is looked at. ok is false for anything
// that is not such a token or carries no usable exp claim, which callers treat
// as "let the server decide".
func TryDecodeTokenExpiry(token string) (expiresAt time.Time, ok bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	payload, err := tokenParser.DecodeSegment(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, false
	}

	// exp of 0 means no expiry; negative values are long past
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil || exp.Unix() == 0 {
		return time.Time{}, false
	}
	return exp.Time, true
}

// tokenExpired reports whether the token must be treated as expired at now.
// Tokens within margin of their expiry already count as expired.
func tokenExpired(token string, now time.Time, margin time.Duration) bool {
	expiresAt, ok := TryDecodeTokenExpiry(token)
	if !ok {
		return false
	}
	return !now.Before(expiresAt.Add(-margin))
}
