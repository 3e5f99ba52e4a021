package animation

import (
	"fmt"
	"log"
	"os"
)

// Logger 日志能力（由构造方注入）
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// StdLogger 基于标准库 log 的默认日志实现，输出形如 "[FramePlayer] WARN: ..."
type StdLogger struct {
	tag string
	out *log.Logger
}

// NewStdLogger 创建一个写到标准错误的日志器
//
// tag 为空时使用 "FramePlayer"。
func NewStdLogger(tag string) *StdLogger {
	return NewStdLoggerTo(log.New(os.Stderr, "", log.LstdFlags), tag)
}

// NewStdLoggerTo 创建写到指定 *log.Logger 的日志器
func NewStdLoggerTo(out *log.Logger, tag string) *StdLogger {
	if tag == "" {
		tag = "FramePlayer"
	}
	if out == nil {
		out = log.Default()
	}
	return &StdLogger{tag: tag, out: out}
}

func (l *StdLogger) Infof(format string, args ...any)  { l.print("INFO", format, args) }
func (l *StdLogger) Warnf(format string, args ...any)  { l.print("WARN", format, args) }
func (l *StdLogger) Errorf(format string, args ...any) { l.print("ERROR", format, args) }

func (l *StdLogger) print(level, format string, args []any) {
	l.out.Printf("[%s] %s: %s", l.tag, level, fmt.Sprintf(format, args...))
}

// NopLogger 丢弃所有日志
type NopLogger struct{}

func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

func loggerOrDefault(l Logger) Logger {
	if l == nil {
		return NewStdLogger("")
	}
	return l
}
