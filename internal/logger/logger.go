// Package logger 提供统一的日志工具
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level 日志级别
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// 日志文件轮转参数
const (
	DefaultMaxFileSize = 5 // MB
	DefaultMaxBackups  = 1
)

func (l Level) String() string {
	switch l {
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

// ParseLevel 解析日志级别字符串
func ParseLevel(s string) Level {
	switch s {
	case "DEBUG", "debug":
		return DEBUG
	case "INFO", "info":
		return INFO
	case "WARN", "warn", "WARNING", "warning":
		return WARN
	case "ERROR", "error":
		return ERROR
	default:
		return INFO
	}
}

// sink 多个 Logger 共享的输出端
type sink struct {
	mu      sync.Mutex
	level   Level
	enabled bool
	console io.Writer
	useCon  bool
	fileOut *lumberjack.Logger
	maxSize int
	logger  *log.Logger
}

// Logger 日志记录器
type Logger struct {
	prefix string
	out    *sink
}

// 全局默认 logger
var defaultLogger = New()

// New 创建新的 Logger 实例
func New() *Logger {
	s := &sink{
		level:   INFO,
		enabled: true,
		console: os.Stdout,
		useCon:  true,
		maxSize: DefaultMaxFileSize,
		logger:  log.New(os.Stdout, "", 0),
	}
	return &Logger{out: s}
}

// NewWithWriter 创建输出到指定 writer 的 Logger（测试用）
func NewWithWriter(w io.Writer) *Logger {
	l := New()
	l.out.console = w
	l.out.logger.SetOutput(w)
	return l
}

// Default 获取默认 logger
func Default() *Logger {
	return defaultLogger
}

// WithPrefix 返回带前缀的子 logger，与父 logger 共享输出和级别
func (l *Logger) WithPrefix(prefix string) *Logger {
	p := prefix
	if l.prefix != "" {
		p = l.prefix + " " + prefix
	}
	return &Logger{prefix: p, out: l.out}
}

// SetLevel 设置日志级别
func (l *Logger) SetLevel(level Level) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.level = level
}

// SetEnabled 设置是否启用日志
func (l *Logger) SetEnabled(enabled bool) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.enabled = enabled
}

// SetConsole 设置是否输出到控制台
func (l *Logger) SetConsole(enabled bool) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.useCon = enabled
	l.out.updateOutput()
}

// SetMaxFileSize 设置日志文件轮转阈值 (MB)，对之后打开的文件生效
func (l *Logger) SetMaxFileSize(mb int) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.maxSize = mb
}

// SetFile 设置是否输出到文件，文件按大小轮转并保留一个备份
func (l *Logger) SetFile(enabled bool, path string) error {
	s := l.out
	s.mu.Lock()
	defer s.mu.Unlock()

	// 关闭旧文件
	if s.fileOut != nil {
		s.fileOut.Close()
		s.fileOut = nil
	}

	if enabled && path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("无法打开日志文件: %w", err)
		}
		f.Close()

		s.fileOut = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    s.maxSize,
			MaxBackups: DefaultMaxBackups,
		}
	}

	s.updateOutput()
	return nil
}

// Rotate 立即轮转日志文件
func (l *Logger) Rotate() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if l.out.fileOut == nil {
		return nil
	}
	if err := l.out.fileOut.Rotate(); err != nil {
		return fmt.Errorf("日志轮转失败: %w", err)
	}
	return nil
}

func (s *sink) updateOutput() {
	var writers []io.Writer

	if s.useCon {
		writers = append(writers, s.console)
	}
	if s.fileOut != nil {
		writers = append(writers, s.fileOut)
	}

	if len(writers) == 0 {
		s.logger.SetOutput(io.Discard)
	} else if len(writers) == 1 {
		s.logger.SetOutput(writers[0])
	} else {
		s.logger.SetOutput(io.MultiWriter(writers...))
	}
}

// log 内部日志方法
func (l *Logger) log(level Level, format string, args ...interface{}) {
	s := l.out
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || level < s.level {
		return
	}

	timestamp := time.Now().Format("15:04:05")
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		msg = l.prefix + " " + msg
	}
	line := fmt.Sprintf("%s | %-5s | %s", timestamp, level.String(), msg)
	s.logger.Println(line)
}

// Debug 输出 DEBUG 级别日志
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info 输出 INFO 级别日志
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn 输出 WARN 级别日志
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error 输出 ERROR 级别日志
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// LogEvent 记录带分类的事件日志
func (l *Logger) LogEvent(category string, ok bool, elapsedMs float64, detail string) {
	status := "OK"
	if !ok {
		status = "NG"
	}

	if ok {
		l.Info("%-6s | %s | %8.1fms | %s", category, status, elapsedMs, detail)
	} else {
		l.Error("%-6s | %s | %8.1fms | %s", category, status, elapsedMs, detail)
	}
}

// Close 关闭 logger，释放资源
func (l *Logger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if l.out.fileOut != nil {
		err := l.out.fileOut.Close()
		l.out.fileOut = nil
		l.out.updateOutput()
		return err
	}
	return nil
}

// 包级别便捷函数
func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }
func Info(format string, args ...interface{})  { defaultLogger.Info(format, args...) }
func Warn(format string, args ...interface{})  { defaultLogger.Warn(format, args...) }
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }
func LogEvent(category string, ok bool, elapsedMs float64, detail string) {
	defaultLogger.LogEvent(category, ok, elapsedMs, detail)
}
