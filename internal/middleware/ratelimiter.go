package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/civiport-dev/civiport/internal/domain"
	"github.com/civiport-dev/civiport/internal/errors"
	"github.com/civiport-dev/civiport/internal/middleware/ratelimiter"
	"github.com/civiport-dev/civiport/internal/utils"
)

func RateLimit(rl *ratelimiter.ClientRateLimiter, getClientID func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity := IdentityFromContext(r); identity != nil && identity.Role == domain.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			clientID, err := getClientID(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			// No key means the request is unattributable here; the handler
			// rejects it with its own error shape.
			if clientID == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !rl.Allow(clientID) {
				utils.WriteErrorAndStatusCode(w, errors.New("Rate limit exceeded, try again later", http.StatusTooManyRequests))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetIP extracts the client IP from RemoteAddr. Proxy headers are not
// trusted, there is no reverse proxy in the deployment.
func GetIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("invalid IP address: %s", ip)
	}
	return ip, nil
}

// GetEmailFromBody peeks at the login/register body for a per-account key
// and restores the body so the handler can read it again. A body without a
// usable email yields an empty key; the limiter must not answer for the
// handler on credential endpoints.
func GetEmailFromBody(r *http.Request) (string, error) {
	body, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return "", nil
	}

	var creds struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &creds); err != nil {
		return "", nil
	}
	return creds.Email, nil
}

// LimitByIPAndEmail stacks the IP limiter and the per-account limiter on
// credential endpoints.
func LimitByIPAndEmail(rl *ratelimiter.ClientRateLimiter, next http.Handler) http.Handler {
	return RateLimit(rl, GetIP)(RateLimit(rl, GetEmailFromBody)(next))
}
