package middleware

import (
	"crypto/hmac"
	"net/http"
)

const adminTokenHeader = "X-Admin-Token"

// AdminMiddleware проверяет токен администратора в заголовке запроса.
type AdminMiddleware struct {
	token string
}

// NewAdminMiddleware создаёт middleware, пропускающий только запросы с
// указанным токеном. Пустой токен запрещает доступ ко всем админским маршрутам.
func NewAdminMiddleware(token string) *AdminMiddleware {
	return &AdminMiddleware{token: token}
}

// Middleware сверяет токен из заголовка с настроенным.
func (a *AdminMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(adminTokenHeader)
		if a.token == "" || !hmac.Equal([]byte(got), []byte(a.token)) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
