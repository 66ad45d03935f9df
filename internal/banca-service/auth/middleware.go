package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// CookieName é o cookie HTTP-only com o access token
const CookieName = "accessToken"

// Middleware autentica requisições via JWT
type Middleware struct {
	log    *zap.Logger
	secret string
}

func NewMiddleware(log *zap.Logger, secret string) *Middleware {
	return &Middleware{log: log, secret: secret}
}

// Handler procura o token (header Authorization, ?token=, cookie), valida e
// coloca o userId no contexto. Em caso de sucesso não escreve nada na resposta.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "token not provided")
			return
		}

		if m.secret == "" {
			m.log.Error("JWT_SECRET not configured")
			writeError(w, http.StatusInternalServerError, ErrNoSecret.Error())
			return
		}

		claims, err := Verify(token, m.secret)
		if err != nil {
			m.log.Debug("token rejected", zap.Error(err), zap.String("path", r.URL.Path))
			writeError(w, http.StatusForbidden, ErrInvalidToken.Error())
			return
		}

		if claims.UserID == "" {
			writeError(w, http.StatusForbidden, ErrMissingUserID.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
	})
}

// tokenFromRequest segue a ordem header -> query -> cookie
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && strings.TrimSpace(parts[1]) != "" {
			return strings.TrimSpace(parts[1])
		}
	}
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
