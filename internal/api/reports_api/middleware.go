package reports_api

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const rateWindow = time.Minute

func (a *ReportsAPI) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		a.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", time.Since(started)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// passwordGate checks the basic auth password against the configured bcrypt hash.
func (a *ReportsAPI) passwordGate(next http.Handler) http.Handler {
	if a.opts.PasswordHash == "" {
		return next
	}
	hash := []byte(a.opts.PasswordHash)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, password, ok := r.BasicAuth()
		if !ok || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="scorebox"`)
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "password required", Kind: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimit counts report generations per client in fixed one-minute windows.
// Limiter failures let the request through.
func (a *ReportsAPI) rateLimit(next http.Handler) http.Handler {
	if a.limiter == nil || a.opts.RateLimitPerMinute <= 0 {
		return next
	}
	limit := int64(a.opts.RateLimitPerMinute)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "reports:" + clientIP(r)
		ok, n, err := a.limiter.Allow(r.Context(), key, limit, rateWindow)
		if err != nil {
			a.log.Warn("rate limiter unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(rateWindow.Seconds())))
			writeJSON(w, http.StatusTooManyRequests, errorBody{
				Error: "rate limit exceeded: " + strconv.FormatInt(n, 10) + " requests this minute",
				Kind:  "rate_limited",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
