package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger. Production environments get JSON output; every
// other environment gets the console encoder. levelEnv accepts zap level
// names and defaults to debug; an unknown name is logged as a warning by
// the returned logger.
func New(env, levelEnv string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if env == "production" {
		cfg = zap.NewProductionConfig()
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zap.NewAtomicLevelAt(zap.DebugLevel)
	var levelErr error
	if levelEnv != "" {
		if err := level.UnmarshalText([]byte(levelEnv)); err != nil {
			levelErr = err
			level.SetLevel(zap.DebugLevel)
		}
	}
	cfg.Level = level

	log, err := cfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, err
	}
	if levelErr != nil {
		log.Warn("bad LOG_LEVEL, falling back to debug", zap.String("value", levelEnv), zap.Error(levelErr))
	}
	return log, nil
}

func Must(env, levelEnv string) *zap.Logger {
	l, err := New(env, levelEnv)
	if err != nil {
		panic(err)
	}
	return l
}
