package logging

import (
	"fmt"
	"log"
)

// Logger is the single sink the crawler writes to.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type stdLogger struct {
	prefix string
}

// New returns a Logger on the standard log package. prefix is prepended to
// every line, e.g. "[spider]".
func New(prefix string) Logger {
	return &stdLogger{prefix: prefix}
}

func (l *stdLogger) Infof(format string, args ...any) {
	l.print("ℹ️", format, args...)
}

func (l *stdLogger) Warnf(format string, args ...any) {
	l.print("⚠️", format, args...)
}

func (l *stdLogger) Errorf(format string, args ...any) {
	l.print("❌", format, args...)
}

func (l *stdLogger) print(level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		log.Printf("%s %s %s", level, l.prefix, msg)
		return
	}
	log.Printf("%s %s", level, msg)
}

// Discard drops everything.
var Discard Logger = discard{}

type discard struct{}

func (discard) Infof(string, ...any)  {}
func (discard) Warnf(string, ...any)  {}
func (discard) Errorf(string, ...any) {}
