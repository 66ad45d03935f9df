package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Issue é um problema de validação em um campo do payload.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError agrupa todos os problemas encontrados num payload.
type ValidationError struct {
	Issues []Issue `json:"issues"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, i := range e.Issues {
		parts = append(parts, i.Field+": "+i.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// nomes dos campos nas mensagens seguem o JSON ("nome", "saldoInicial", ...)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimal é validado como float para permitir gt/gte nas tags
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// reader lê campos de um payload genérico acumulando problemas de tipo.
type reader struct {
	raw    map[string]any
	issues []Issue
}

func newReader(raw map[string]any) *reader {
	if raw == nil {
		raw = map[string]any{}
	}
	return &reader{raw: raw}
}

func (r *reader) fail(field, msg string) {
	r.issues = append(r.issues, Issue{Field: field, Message: msg})
}

// lookup trata null como ausente.
func (r *reader) lookup(key string) (any, bool) {
	v, ok := r.raw[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (r *reader) require(key string) {
	if _, ok := r.lookup(key); !ok {
		r.fail(key, "is required")
	}
}

func (r *reader) str(key string) *string {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		r.fail(key, "must be a string")
		return nil
	}
	return &s
}

func (r *reader) boolean(key string) *bool {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		r.fail(key, "must be a boolean")
		return nil
	}
	return &b
}

func (r *reader) number(key string) *decimal.Decimal {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	d, err := coerceDecimal(v)
	if err != nil {
		r.fail(key, "must be a number")
		return nil
	}
	return &d
}

func (r *reader) timestamp(key string) *time.Time {
	s := r.str(key)
	if s == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(*s))
	if err != nil {
		r.fail(key, "must be an RFC3339 timestamp")
		return nil
	}
	return &t
}

// coerceDecimal aceita números JSON e strings numéricas.
func coerceDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case float64:
		return decimal.NewFromFloat(n), nil
	case float32:
		return decimal.NewFromFloat32(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return decimal.Zero, errors.New("empty string")
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Zero, fmt.Errorf("unsupported type %T", v)
	}
}

// finish roda as regras declarativas de dst e consolida com os problemas de tipo.
// Campos que já falharam na leitura não recebem uma segunda mensagem.
func (r *reader) finish(dst any) error {
	seen := make(map[string]bool, len(r.issues))
	for _, i := range r.issues {
		seen[i.Field] = true
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			if seen[fe.Field()] {
				continue
			}
			seen[fe.Field()] = true
			r.fail(fe.Field(), message(fe))
		}
	}

	if len(r.issues) == 0 {
		return nil
	}
	sort.SliceStable(r.issues, func(i, j int) bool { return r.issues[i].Field < r.issues[j].Field })
	return &ValidationError{Issues: r.issues}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must not be empty"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "uuid":
		return "must be a valid id"
	default:
		return "is invalid"
	}
}
