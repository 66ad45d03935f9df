package auth

import "context"

type contextKey string

const userIDKey contextKey = "userId"

// WithUserID anexa o usuário autenticado ao contexto da requisição
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID devolve o usuário autenticado ou "" se não houver
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}
