package handlers

import (
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/handler"
)

// WrapWithLogging wraps a command handler with start/finish logging and slow
// command detection.
func WrapWithLogging(name string, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		start := time.Now()

		slog.Info("Command started",
			slog.String("type", "cmd"),
			slog.String("name", name),
			slog.String("user_id", e.User().ID.String()),
			slog.String("user_name", e.User().Username),
		)

		err := h(e)
		duration := time.Since(start)

		attrs := []any{
			slog.String("type", "cmd"),
			slog.String("name", name),
			slog.String("user_id", e.User().ID.String()),
			slog.String("user_name", e.User().Username),
			slog.Duration("took", duration),
		}

		if err != nil {
			slog.Error("Command failed", append(attrs,
				slog.Any("error", err),
				slog.String("status", "failed"),
			)...)
		} else if duration > 2*time.Second {
			slog.Warn("Command executed slowly", append(attrs,
				slog.String("status", "slow"),
			)...)
		} else {
			slog.Info("Command completed", append(attrs,
				slog.String("status", "success"),
			)...)
		}

		return err
	}
}

// WrapComponentWithLogging mirrors WrapWithLogging for component handlers.
func WrapComponentWithLogging(name string, h handler.ComponentHandler) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		start := time.Now()

		err := h(e)
		duration := time.Since(start)

		attrs := []any{
			slog.String("type", "cmd"),
			slog.String("name", name),
			slog.String("user_id", e.User().ID.String()),
			slog.String("user_name", e.User().Username),
			slog.Duration("took", duration),
		}

		if err != nil {
			slog.Error("Component interaction failed", append(attrs,
				slog.Any("error", err),
				slog.String("status", "failed"),
			)...)
		} else {
			slog.Info("Component interaction completed", append(attrs,
				slog.String("status", "success"),
			)...)
		}

		return err
	}
}
