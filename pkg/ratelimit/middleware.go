package ratelimit

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	pkgerrors "github.com/tendant/eligibility-idm/pkg/errors"
)

// Middleware rejects requests from a client address that has used up its
// bucket with 429 and a Retry-After header. The address is taken from
// RemoteAddr, so chi's RealIP middleware must run first when the service
// sits behind a proxy.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r.RemoteAddr)
		if !l.Allow(ip) {
			slog.Warn("Rate limit exceeded", "ip", ip, "method", r.Method, "path", r.URL.Path)
			seconds := int(math.Ceil(l.RetryAfter().Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			pkgerrors.RenderError(w, r, pkgerrors.TooManyRequests("too many requests, try again later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
