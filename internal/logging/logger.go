package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает уровень логирования из строки, по умолчанию INFO
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case TRACE:
		return zerolog.TraceLevel
	case DEBUG:
		return zerolog.DebugLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Options параметры логгера
type Options struct {
	Dir          string   // Директория для файлов логов, пустая строка отключает запись в файл
	ConsoleLevel LogLevel // Минимальный уровень для консоли
	FileLevel    LogLevel // Минимальный уровень для файла
	Console      io.Writer
}

// DefaultOptions возвращает параметры по умолчанию
func DefaultOptions() Options {
	return Options{
		Dir:          "logs",
		ConsoleLevel: INFO,
		FileLevel:    DEBUG,
		Console:      os.Stdout,
	}
}

// Logger логгер компонента на базе zerolog
type Logger struct {
	component       string
	console         zerolog.Logger
	file            zerolog.Logger
	fileHandle      *os.File
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
}

// NewLogger создает логгер компонента с параметрами по умолчанию
func NewLogger(component string) (*Logger, error) {
	return NewLoggerWithOptions(component, currentOptions())
}

// NewLoggerWithOptions создает логгер компонента
func NewLoggerWithOptions(component string, opts Options) (*Logger, error) {
	if opts.Console == nil {
		opts.Console = os.Stdout
	}

	l := &Logger{
		component:       component,
		minConsoleLevel: opts.ConsoleLevel,
		minFileLevel:    opts.FileLevel,
		console: zerolog.New(zerolog.ConsoleWriter{
			Out:        opts.Console,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Str("component", component).Logger(),
		file: zerolog.Nop(),
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("ошибка создания директории %s: %w", opts.Dir, err)
		}
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		filename := filepath.Join(opts.Dir, fmt.Sprintf("%s_%s.log", component, timestamp))

		file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
		}
		l.fileHandle = file
		l.file = zerolog.New(file).With().Timestamp().Str("component", component).Logger()
	}

	return l, nil
}

// Component возвращает имя компонента
func (l *Logger) Component() string {
	return l.component
}

// Close закрывает файл логов
func (l *Logger) Close() error {
	if l.fileHandle == nil {
		return nil
	}
	err := l.fileHandle.Close()
	l.fileHandle = nil
	l.file = zerolog.Nop()
	return err
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if level >= l.minConsoleLevel {
		l.console.WithLevel(level.zerolog()).Msg(msg)
	}
	if level >= l.minFileLevel {
		l.file.WithLevel(level.zerolog()).Msg(msg)
	}
}

func (l *Logger) Trace(format string, args ...interface{}) { l.log(TRACE, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

func init() {
	// Фильтрация по уровням выполняется в Logger.log
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

var (
	defaultMu      sync.RWMutex
	defaultLogger  *Logger
	defaultOptions = DefaultOptions()
)

func currentOptions() Options {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultOptions
}

// Configure задает параметры для новых логгеров
func Configure(opts Options) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultOptions = opts
}

// InitDefaultLogger инициализирует глобальный логгер
func InitDefaultLogger(component string) error {
	logger, err := NewLogger(component)
	if err != nil {
		return err
	}

	defaultMu.Lock()
	old := defaultLogger
	defaultLogger = logger
	defaultMu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// CloseDefaultLogger закрывает глобальный логгер и логгеры компонентов
func CloseDefaultLogger() {
	defaultMu.Lock()
	if defaultLogger != nil {
		_ = defaultLogger.Close()
		defaultLogger = nil
	}
	defaultMu.Unlock()

	_ = closeComponents()
}

func current() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

func logDefault(level LogLevel, format string, args ...interface{}) {
	if l := current(); l != nil {
		l.log(level, format, args...)
	}
}

// Trace логирует сообщение уровня TRACE в глобальный логгер
func Trace(format string, args ...interface{}) { logDefault(TRACE, format, args...) }

// Debug логирует сообщение уровня DEBUG в глобальный логгер
func Debug(format string, args ...interface{}) { logDefault(DEBUG, format, args...) }

// Info логирует сообщение уровня INFO в глобальный логгер
func Info(format string, args ...interface{}) { logDefault(INFO, format, args...) }

// Warn логирует сообщение уровня WARN в глобальный логгер
func Warn(format string, args ...interface{}) { logDefault(WARN, format, args...) }

// Error логирует сообщение уровня ERROR в глобальный логгер
func Error(format string, args ...interface{}) { logDefault(ERROR, format, args...) }
