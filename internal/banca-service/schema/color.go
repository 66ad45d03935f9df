package schema

import "strings"

// IsValidColor informa se v é uma string com conteúdo além de espaços.
func IsValidColor(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

// NormalizeColor devolve a cor sem espaços nas bordas, ou nil quando ausente/vazia.
// nil e "" não são a mesma coisa para quem chama.
func NormalizeColor(v any) *string {
	if !IsValidColor(v) {
		return nil
	}
	return normalizeOptional(v.(string))
}

// normalizeOptional converte strings só com espaços em ausência.
func normalizeOptional(s string) *string {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}
	return &t
}
