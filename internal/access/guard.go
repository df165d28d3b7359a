package access

import (
	"log/slog"
	"net/http"

	"github.com/khandaa/adminbase/internal/platform/httpx"
)

// DecisionRecorder receives one observation per guard evaluation.
type DecisionRecorder interface {
	RecordDecision(reason string, allowed bool)
}

// Guard adapts the decision engine to HTTP routing. One Guard instance is
// shared by every protected route; each request is evaluated independently
// against the latest principal and toggle snapshot.
type Guard struct {
	Toggles ToggleReader
	Logger  *slog.Logger
	Metrics DecisionRecorder
}

// Protect returns middleware enforcing the given rule. Denials are answered
// at this boundary with problem details carrying the reason; handlers behind
// the guard never see denied requests.
func (g Guard) Protect(rule Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			verdict := Evaluate(principal, rule, g.Toggles)
			if g.Metrics != nil {
				g.Metrics.RecordDecision(string(verdict.Reason), verdict.Allowed)
			}
			if !verdict.Allowed {
				g.deny(w, r, verdict)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g Guard) deny(w http.ResponseWriter, r *http.Request, verdict Verdict) {
	if g.Logger != nil {
		g.Logger.Warn("access denied",
			slog.String("path", r.URL.Path),
			slog.String("reason", string(verdict.Reason)),
		)
	}
	if verdict.Reason == ReasonNotAuthenticated {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", string(verdict.Reason))
		return
	}
	httpx.Problem(w, http.StatusForbidden, "Forbidden", string(verdict.Reason))
}
