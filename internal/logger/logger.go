package logger

import (
	"go.uber.org/zap"
)

// New builds the service logger: structured JSON in production, console
// output in development.
func New(env, service string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Named(service), nil
}
