package logger

import (
	"log/slog"
	"os"

	"github.com/skif48/wellness-engine/app_config"
	"go.uber.org/fx/fxevent"
)

func InitLogger(ac *app_config.AppConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(ac.LogLevel)); err != nil {
		panic(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})).With("service", "wellness-engine")
	slog.SetDefault(logger)
	return logger
}

// FxLogger routes fx lifecycle events through the application logger.
func FxLogger(l *slog.Logger) fxevent.Logger {
	return &fxevent.SlogLogger{Logger: l.With("component", "fx")}
}
