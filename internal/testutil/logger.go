package testutil

import (
	"io"
	"log/slog"

	"github.com/dtroode/vkn-server/internal/logger"
)

func MakeNoopLogger() *logger.Logger {
	return &logger.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))}
}

// MakeBufferLogger returns a logger writing at debug level into w.
func MakeBufferLogger(w io.Writer) *logger.Logger {
	return &logger.Logger{Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))}
}
