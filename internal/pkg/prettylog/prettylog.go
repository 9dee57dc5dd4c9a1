// Package prettylog is a human-oriented zap encoder for terminal output.
package prettylog

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	ansiReset   = "\033[0m"
	ansiBlack   = "\033[30m"
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
	ansiGray    = "\033[90m"
	ansiBgRed   = "\033[41m"
)

// HintKey is a field key that overrides the icon shown for an entry. It is
// never printed.
const HintKey = "_pl"

const (
	HintReady = "ready"
	HintStart = "start"
)

var bufPool = buffer.NewPool()

// Encoder renders entries as "time icon [name] message key=value ...".
// Fields are printed sorted by key.
type Encoder struct {
	*zapcore.MapObjectEncoder
	color bool
}

// NewEncoder returns an Encoder. color enables ANSI escapes.
func NewEncoder(color bool) zapcore.Encoder {
	return &Encoder{MapObjectEncoder: zapcore.NewMapObjectEncoder(), color: color}
}

// ShouldColor reports whether stdout should get ANSI colors. NO_COLOR wins.
func ShouldColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func (e *Encoder) Clone() zapcore.Encoder {
	return &Encoder{MapObjectEncoder: e.copyFields(), color: e.color}
}

func (e *Encoder) copyFields() *zapcore.MapObjectEncoder {
	m := zapcore.NewMapObjectEncoder()
	for k, v := range e.Fields {
		m.Fields[k] = v
	}
	return m
}

func (e *Encoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	m := e.copyFields()
	for _, f := range fields {
		f.AddTo(m)
	}
	hint, _ := m.Fields[HintKey].(string)
	delete(m.Fields, HintKey)

	buf := bufPool.Get()
	e.paint(buf, ansiGray, entry.Time.Format("2006-01-02 15:04:05"))
	buf.AppendByte(' ')

	if entry.Level >= zapcore.ErrorLevel {
		label := " " + strings.ToUpper(entry.Level.String()) + " "
		e.paint(buf, ansiBgRed+ansiBlack, label)
	} else {
		icon, color := iconFor(entry.Level, hint)
		e.paint(buf, color, icon)
	}
	buf.AppendByte(' ')

	if entry.LoggerName != "" {
		e.paint(buf, ansiYellow, "["+entry.LoggerName+"]")
		buf.AppendByte(' ')
	}
	buf.AppendString(entry.Message)

	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		buf.AppendByte(' ')
		buf.AppendString(k)
		buf.AppendByte('=')
		buf.AppendString(quoteIfNeeded(fmt.Sprint(m.Fields[k])))
	}

	if entry.Stack != "" {
		buf.AppendByte('\n')
		buf.AppendString(entry.Stack)
	}
	buf.AppendByte('\n')
	return buf, nil
}

func (e *Encoder) paint(buf *buffer.Buffer, color, text string) {
	if e.color && color != "" {
		buf.AppendString(color)
		buf.AppendString(text)
		buf.AppendString(ansiReset)
		return
	}
	buf.AppendString(text)
}

func iconFor(level zapcore.Level, hint string) (string, string) {
	switch hint {
	case HintReady:
		return "✔", ansiGreen
	case HintStart:
		return "◐", ansiMagenta
	}
	switch level {
	case zapcore.DebugLevel:
		return "⚙", ansiGray
	case zapcore.WarnLevel:
		return "⚠", ansiYellow
	default:
		return "ℹ", ansiCyan
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \"=\n\r\t") {
		return strconv.Quote(s)
	}
	return s
}

// ReadyField marks an entry with the ready icon.
func ReadyField() zapcore.Field {
	return zapcore.Field{Key: HintKey, Type: zapcore.StringType, String: HintReady}
}

// StartField marks an entry with the start icon.
func StartField() zapcore.Field {
	return zapcore.Field{Key: HintKey, Type: zapcore.StringType, String: HintStart}
}
