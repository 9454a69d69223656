package middleware

import (
	"net/http"
	"strings"

	"github.com/nkiryanov/bankmatch/internal/handlers/clientctx"
	"github.com/nkiryanov/bankmatch/internal/handlers/render"
)

type tokenParser interface {
	// Parse token and return client application it was issued for
	Parse(value string) (string, error)
}

func AuthMiddleware(tp tokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			value, ok := bearer(r)
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			client, err := tp.Parse(value)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := clientctx.New(r.Context(), client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	scheme, value, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	value = strings.TrimSpace(value)
	return value, value != ""
}
