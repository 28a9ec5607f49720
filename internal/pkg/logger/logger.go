package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New 依設定建立 root logger
// pretty 為 true 時使用 console writer，方便本機開發
func New(level string, pretty bool) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, pretty)
}

func NewWithWriter(w io.Writer, level string, pretty bool) zerolog.Logger {
	lv, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lv = zerolog.InfoLevel
	}

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(lv).With().Timestamp().Logger()
}

// Nop 測試用
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
