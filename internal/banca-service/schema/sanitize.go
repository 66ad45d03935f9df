package schema

// FieldColor é armazenado no banco mas nunca sai da API.
const FieldColor = "cor"

// Sanitize devolve uma cópia rasa do registro sem o campo "cor".
// O mapa original não é alterado; valores aninhados (ex.: "metricas") seguem por referência.
func Sanitize(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		if k == FieldColor {
			continue
		}
		out[k] = v
	}
	return out
}

func SanitizeAll(records []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		out = append(out, Sanitize(r))
	}
	return out
}
