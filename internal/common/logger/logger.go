package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type Logger struct {
	service string
	base    map[string]any

	mu  *sync.Mutex
	out io.Writer
}

func New(service string) *Logger {
	return &Logger{service: service, mu: &sync.Mutex{}, out: os.Stdout}
}

// NewWithWriter is New with a custom sink, used by tests.
func NewWithWriter(service string, w io.Writer) *Logger {
	return &Logger{service: service, mu: &sync.Mutex{}, out: w}
}

// Discard returns a logger that writes nowhere.
func Discard() *Logger { return NewWithWriter("discard", io.Discard) }

// With returns a child logger that adds fields to every entry.
func (l *Logger) With(fields map[string]any) *Logger {
	base := make(map[string]any, len(l.base)+len(fields))
	for k, v := range l.base {
		base[k] = v
	}
	for k, v := range fields {
		base[k] = v
	}
	return &Logger{service: l.service, base: base, mu: l.mu, out: l.out}
}

func (l *Logger) log(level, action, msg string, fields map[string]any, err error) {
	entry := map[string]any{
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		"level":      level,
		"service":    l.service,
		"action":     action,
		"message":    msg,
		"hostname":   hostname(),
		"request_id": "",
	}
	for k, v := range l.base {
		entry[k] = v
	}
	for k, v := range fields {
		entry[k] = v
	}
	if err != nil {
		entry["error"] = map[string]any{"msg": err.Error(), "stack": fmt.Sprintf("%T", err)}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = json.NewEncoder(l.out).Encode(entry)
}

func (l *Logger) Info(action string, fields map[string]any)             { l.log("INFO", action, action, fields, nil) }
func (l *Logger) Debug(action string, fields map[string]any)            { l.log("DEBUG", action, action, fields, nil) }
func (l *Logger) Warn(action string, fields map[string]any)             { l.log("WARN", action, action, fields, nil) }
func (l *Logger) Error(action string, err error, fields map[string]any) { l.log("ERROR", action, action, fields, err) }

var (
	hostOnce sync.Once
	hostName string
)

func hostname() string {
	hostOnce.Do(func() { hostName, _ = os.Hostname() })
	return hostName
}
