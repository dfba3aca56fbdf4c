package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware требует X-API-Key для изменяющих запросов к /api/.
// Пустой key отключает проверку. Вебхук не проверяется: провайдер ключ не присылает.
func APIKeyMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isStateChanging(r.Method) && strings.HasPrefix(r.URL.Path, "/api/") {
				got := r.Header.Get(APIKeyHeader)
				if got == "" {
					http.Error(w, `{"error":"X-API-Key header missing"}`, http.StatusUnauthorized)
					return
				}
				if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
					http.Error(w, `{"error":"invalid API key"}`, http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
