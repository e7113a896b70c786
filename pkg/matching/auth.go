package matching

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/getmockd/ersatz/pkg/request"
)

// BasicAuth matches requests carrying HTTP Basic credentials for user and
// password.
func BasicAuth(user, password string) Predicate {
	return Request(fmt.Sprintf("basic auth as %q", user), func(r *request.ClientRequest) bool {
		raw, ok := strings.CutPrefix(r.Header("Authorization"), "Basic ")
		if !ok {
			return false
		}
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
		if err != nil {
			return false
		}
		u, p, ok := strings.Cut(string(decoded), ":")
		return ok && u == user && p == password
	})
}

// BearerJWT matches requests whose Authorization bearer token is a JWT that
// verifies with keyFunc and whose claims satisfy claims. A nil claims
// matcher accepts any valid token.
func BearerJWT(keyFunc jwt.Keyfunc, claims Matcher[jwt.MapClaims]) Predicate {
	if claims == nil {
		claims = Anything[jwt.MapClaims]()
	}
	return Request("bearer JWT with "+claims.String(), func(r *request.ClientRequest) bool {
		raw, ok := strings.CutPrefix(r.Header("Authorization"), "Bearer ")
		if !ok {
			return false
		}
		token, err := jwt.Parse(strings.TrimSpace(raw), keyFunc)
		if err != nil || !token.Valid {
			return false
		}
		mc, ok := token.Claims.(jwt.MapClaims)
		return ok && claims.Match(mc)
	})
}

// Claim matches token claims where name equals value. Numeric claims
// compare by value.
func Claim(name string, value any) Matcher[jwt.MapClaims] {
	return Func(fmt.Sprintf("claim %s = %v", name, describeValue(value)), func(c jwt.MapClaims) bool {
		v, ok := c[name]
		return ok && valuesEqual(v, value)
	})
}
