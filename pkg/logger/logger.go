package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity level of log messages
type Level int

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// zapLevel maps a level onto zap's scale; trace sits one below debug.
func (l Level) zapLevel() zapcore.Level {
	return zapcore.Level(int(l) - 2)
}

func fromZapLevel(l zapcore.Level) Level {
	return Level(int(l) + 2)
}

// ParseLevel converts a level name such as "debug" into a Level.
func ParseLevel(name string) (Level, error) {
	switch name {
	case "trace", "TRACE":
		return TraceLevel, nil
	case "debug", "DEBUG":
		return DebugLevel, nil
	case "info", "INFO":
		return InfoLevel, nil
	case "warn", "WARN", "warning":
		return WarnLevel, nil
	case "error", "ERROR":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", name)
}

var levelColors = map[Level]string{
	TraceLevel: "\033[37m", // White
	DebugLevel: "\033[36m", // Cyan
	InfoLevel:  "\033[32m", // Green
	WarnLevel:  "\033[33m", // Yellow
	ErrorLevel: "\033[31m", // Red
}

// Config holds the logger configuration
type Config struct {
	Level     Level
	UseColor  bool
	JSON      bool
	Component string
	NoOp      bool
}

// Logger represents the logger instance
type Logger struct {
	config Config
	zl     *zap.Logger
}

// Default logger instance
var defaultLogger *Logger

// New builds a logger writing to w.
func New(config Config, w io.Writer) *Logger {
	l := &Logger{config: config}
	l.zl = l.build(zapcore.AddSync(w))
	return l
}

// Initialize sets up the default logger
func Initialize(config Config) error {
	defaultLogger = New(config, os.Stderr)
	return nil
}

func (l *Logger) build(out zapcore.WriteSyncer) *zap.Logger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "component",
		MessageKey:       "message",
		CallerKey:        "file",
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: " ",
	}
	var enc zapcore.Encoder
	if l.config.JSON {
		encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		encCfg.EncodeLevel = levelEncoder(false, false)
		encCfg.EncodeName = zapcore.FullNameEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		encCfg.EncodeLevel = levelEncoder(l.config.UseColor, true)
		encCfg.EncodeName = func(name string, pae zapcore.PrimitiveArrayEncoder) {
			pae.AppendString(name + ":")
		}
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, out, zap.NewAtomicLevelAt(l.config.Level.zapLevel()))
	var opts []zap.Option
	// Add caller info for debug and trace
	if l.config.Level <= DebugLevel {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(2))
	}
	zl := zap.New(core, opts...)
	if l.config.Component != "" {
		zl = zl.Named(l.config.Component)
	}
	return zl
}

func levelEncoder(color, brackets bool) zapcore.LevelEncoder {
	return func(zl zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		level := fromZapLevel(zl)
		name := level.String()
		if color {
			if c, ok := levelColors[level]; ok {
				name = c + name + "\033[0m"
			}
		}
		if brackets {
			name = "[" + name + "]"
		}
		enc.AppendString(name)
	}
}

// Log writes a log message
func (l *Logger) Log(level Level, message string, fields ...Field) {
	ce := l.zl.Check(level.zapLevel(), l.decorate(message))
	if ce == nil {
		return
	}
	zf := make([]zap.Field, 0, len(fields)+1)
	if l.config.NoOp && l.config.JSON {
		zf = append(zf, zap.Bool("noop", true))
	}
	for _, f := range fields {
		zf = append(zf, zap.Any(f.Key, f.Value))
	}
	ce.Write(zf...)
}

// decorate adds the no-op marker to pretty output.
func (l *Logger) decorate(message string) string {
	if !l.config.NoOp || l.config.JSON {
		return message
	}
	if l.config.UseColor {
		return "\033[35m[NO-OP]\033[0m " + message // Magenta
	}
	return "[NO-OP] " + message
}

// Field represents a structured field in a log entry
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field
func Err(err error) Field {
	return Field{Key: "error", Value: err.Error()}
}

// Convenience functions for default logger
func Trace(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(TraceLevel, message, fields...)
	}
}

func Debug(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(DebugLevel, message, fields...)
	}
}

func Info(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(InfoLevel, message, fields...)
	} else {
		// Fallback to stderr if logger not initialized
		_, _ = fmt.Fprintf(os.Stderr, "[INFO] recipeneat: %s\n", message)
	}
}

func Warn(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(WarnLevel, message, fields...)
	}
}

func Error(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(ErrorLevel, message, fields...)
	}
}

// SetOutput sets the output writer for the logger
func SetOutput(w io.Writer) {
	if defaultLogger != nil {
		defaultLogger.zl = defaultLogger.build(zapcore.AddSync(w))
	}
}

// Sync flushes buffered log entries.
func Sync() {
	if defaultLogger != nil {
		_ = defaultLogger.zl.Sync()
	}
}
