package httpmw

import (
	"context"
	"net/http"
	"strings"
)

type TokenVerifier interface {
	ParseAndValidate(token string) (string, error)
}

type ctxKey string

const ctxKeyUserID ctxKey = "user_id"

// AuthMiddleware: Bearer-заголовок в приоритете, cookie — запасной канал
// для браузерных клиентов.
func AuthMiddleware(verifier TokenVerifier, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") && len(auth) > 7 {
				token = strings.TrimSpace(auth[7:])
			} else if c, err := r.Cookie(cookieName); err == nil {
				token = c.Value
			}
			if token == "" {
				http.Error(w, `{"error":"missing credential"}`, http.StatusUnauthorized)
				return
			}

			userID, err := verifier.ParseAndValidate(token)
			if err != nil {
				http.Error(w, `{"error":"invalid credential"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserIDFromCtx(ctx context.Context) string {
	if v := ctx.Value(ctxKeyUserID); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
