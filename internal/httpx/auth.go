package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

type ctxKey int

const adminIDKey ctxKey = iota

// AdminAuth accepts an HS256 token from the Authorization header or the jwt
// cookie and requires an adminId claim.
func AdminAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized: No token provided"})
				return
			}

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized: Invalid token"})
				return
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			adminID, _ := claims["adminId"].(string)
			if !ok || adminID == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized: Admin not found"})
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminIDKey, adminID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie("jwt"); err == nil {
		return c.Value
	}
	return ""
}

func adminID(ctx context.Context) string {
	id, _ := ctx.Value(adminIDKey).(string)
	return id
}
