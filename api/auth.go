package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/scaleup-planner/logging"
)

// TokenCookie is the cookie a browser session carries its token in.
const TokenCookie = "planner_token"

// AuthOptions configures the session gate.
type AuthOptions struct {
	Enabled  bool
	Tokens   []string
	LoginURL string
}

// RequireSession rejects requests without a configured token before any
// handler runs. Browsers are redirected to the login page; API callers
// get 401. With auth disabled it passes everything through.
func RequireSession(opts AuthOptions, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("auth")
	if opts.LoginURL == "" {
		opts.LoginURL = "/login"
	}

	return func(next http.Handler) http.Handler {
		if !opts.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := requestToken(r)
			if token != "" && validToken(token, opts.Tokens) {
				next.ServeHTTP(w, r)
				return
			}

			logger.Debug("rejected unauthenticated request",
				zap.String("path", r.URL.Path),
				zap.Bool("token_present", token != ""),
				zap.String("authorization", logging.SanitizeToken(r.Header.Get("Authorization"))))

			if wantsHTML(r) {
				http.Redirect(w, r, opts.LoginURL, http.StatusFound)
				return
			}
			writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		})
	}
}

func requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if after, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

func validToken(token string, tokens []string) bool {
	ok := false
	for _, t := range tokens {
		if subtle.ConstantTimeCompare([]byte(token), []byte(t)) == 1 {
			ok = true
		}
	}
	return ok
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
