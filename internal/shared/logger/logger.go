package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New cria o logger estruturado do serviço.
// Em "local" usa a config de desenvolvimento (console, nível debug).
func New(serviceName string, env string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// serviço e env sempre entram como campos padrão
	return cfg.Build(
		zap.Fields(
			zap.String("service", serviceName),
			zap.String("env", env),
		),
	)
}

// Must é o atalho usado nos mains: sem logger não há como seguir.
func Must(serviceName string, env string) *zap.Logger {
	l, err := New(serviceName, env)
	if err != nil {
		panic(err)
	}
	return l
}
