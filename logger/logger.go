package logger

import (
	"fmt"
	"log"
	"strings"
)

// Logger is the minimal logging surface the load pipeline needs. Arguments
// are alternating key-value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

var LoggerEnabled = true

type DefaultLogger struct {
	name string
}

func NewDefaultLogger(name string) *DefaultLogger {
	return &DefaultLogger{name: name}
}

func (d *DefaultLogger) Debug(msg string, args ...any) {
	d.emit("DEBUG", msg, args)
}

func (d *DefaultLogger) Info(msg string, args ...any) {
	d.emit("INFO", msg, args)
}

func (d *DefaultLogger) Error(msg string, args ...any) {
	d.emit("ERROR", msg, args)
}

func (d *DefaultLogger) emit(level, msg string, args []any) {
	if !LoggerEnabled {
		return
	}
	log.Printf("[%s] %s | %s%s\n", level, d.name, msg, formatPairs(args))
}

func formatPairs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(args); i += 2 {
		key := fmt.Sprintf("%v", args[i])
		value := any("")
		if i+1 < len(args) {
			value = args[i+1]
		}
		b.WriteString(fmt.Sprintf(" %s=%v", key, value))
	}
	return b.String()
}

// Noop discards everything, for tests and silent pipelines.
type Noop struct{}

func (Noop) Debug(string, ...any) {}
func (Noop) Info(string, ...any)  {}
func (Noop) Error(string, ...any) {}
