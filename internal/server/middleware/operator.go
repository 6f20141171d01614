package middleware

import (
	"context"
	"net/http"
	"strings"
)

type operatorKey struct{}

const maxOperatorLen = 64

// WithOperator stores the X-Operator header in the request context so the
// ledger can stamp batches and audit entries with it.
func WithOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op := strings.TrimSpace(r.Header.Get("X-Operator"))
		if len(op) > maxOperatorLen {
			op = op[:maxOperatorLen]
		}
		if op != "" {
			r = r.WithContext(context.WithValue(r.Context(), operatorKey{}, op))
		}
		next.ServeHTTP(w, r)
	})
}

// Operator returns the operator recorded by WithOperator, or "".
func Operator(ctx context.Context) string {
	op, _ := ctx.Value(operatorKey{}).(string)
	return op
}
