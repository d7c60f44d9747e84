// Package logger provides structured logging for the mentor service.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // pretty-print for development
	Output     io.Writer
	WithCaller bool
}

// Logger wraps zerolog with service-specific helpers.
type Logger struct {
	zlog zerolog.Logger
}

// New creates a new structured logger.
func New(cfg Config) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", "mentor").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// Zerolog returns the underlying zerolog logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

// Component returns a zerolog logger tagged with a component name.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.zlog.With().Str("component", name).Logger()
}

// LogHTTPRequest logs a finished HTTP request.
func (l *Logger) LogHTTPRequest(method, path string, status int, duration time.Duration, requestID string) {
	event := l.zlog.Info()
	switch {
	case status >= 500:
		event = l.zlog.Error()
	case status >= 400:
		event = l.zlog.Warn()
	}
	event.
		Str("component", "http").
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("duration_ms", duration).
		Str("request_id", requestID).
		Msg("HTTP request completed")
}

// LogPhaseTransition logs a conversation moving between phases.
func (l *Logger) LogPhaseTransition(conversationID int, from, to string, turn int) {
	l.zlog.Info().
		Str("component", "conversation").
		Int("conversation_id", conversationID).
		Str("from", from).
		Str("to", to).
		Int("turn", turn).
		Msg("phase transition")
}

// LogServerStart logs server startup.
func (l *Logger) LogServerStart(addr, db, provider string) {
	l.zlog.Info().
		Str("event", "server_start").
		Str("addr", addr).
		Str("database", db).
		Str("llm_provider", provider).
		Msg("mentor server starting")
}

// LogServerShutdown logs server shutdown.
func (l *Logger) LogServerShutdown() {
	l.zlog.Info().
		Str("event", "server_shutdown").
		Msg("mentor server shutting down")
}

// InitGlobalLogger builds a logger from cfg and installs it as the
// zerolog global logger.
func InitGlobalLogger(cfg Config) *Logger {
	l := New(cfg)
	log.Logger = l.zlog
	return l
}
