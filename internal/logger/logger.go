package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

var Logger zerolog.Logger

func Init() {
	InitWithWriter(os.Stdout)
}

func InitWithWriter(w io.Writer) {
	// ---- level ----
	level, err := zerolog.ParseLevel(envOr("LOG_LEVEL", "info"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	// ---- format ----
	// json by default: CloudWatch ingests one object per line.
	format := envOr("LOG_FORMAT", "json")

	var base zerolog.Logger
	if format == "console" {
		cw := zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
		if envOr("LOG_COLOR", "1") == "0" {
			cw.NoColor = true
		}
		base = zerolog.New(cw)
	} else {
		base = zerolog.New(w)
	}

	// ---- enrich ----
	// LOG_TIMESTAMP=0 drops the time field; the log platform stamps ingestion time.
	ctx := base.With()
	if envOr("LOG_TIMESTAMP", "1") != "0" {
		ctx = ctx.Timestamp()
	}
	if envOr("LOG_CALLER", "0") == "1" {
		ctx = ctx.Caller()
	}

	Logger = ctx.Logger().Level(level)
	zlog.Logger = Logger
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return strings.ToLower(v)
	}
	return def
}
