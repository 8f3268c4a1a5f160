package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// InitLogger configures the global zerolog logger with a service field and
// the level named by LOG_LEVEL (DEBUG, INFO, WARN, ERROR; INFO otherwise).
func InitLogger(service string) {
	Init(service, os.Stderr)
}

// Init is InitLogger with an explicit writer. When LOG_FILE is set, events
// are also written to that file, rotated at 50 MB with seven backups kept.
func Init(service string, w io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(ParseLevel(os.Getenv("LOG_LEVEL")))
	if path := strings.TrimSpace(os.Getenv("LOG_FILE")); path != "" {
		w = io.MultiWriter(w, fileWriter(path))
	}
	log.Logger = zerolog.New(w).With().Timestamp().Str("service", service).Logger()
}

func fileWriter(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50,
		MaxBackups: 7,
		MaxAge:     30,
		Compress:   true,
	}
}

func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func Info() *zerolog.Event {
	return log.Info()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
