// Package puzzle 估算滑块验证码的拖动距离
//
// 截图左侧是拼图块，右侧是带缺口的背景。对两部分分别提取边缘，
// 在背景中做模板匹配，匹配位置的横坐标即滑块需要拖动的像素数。
package puzzle

import (
	"github.com/zoeyai/cmcbot/internal/logger"
	"github.com/zoeyai/cmcbot/pkg/vision/cv"
	"github.com/zoeyai/cmcbot/pkg/vision/match"
)

// Option 配置选项函数类型
type Option func(*Options)

// Options 估算器配置
type Options struct {
	// PieceWidth 拼图块区域宽度，从截图左边缘起算
	PieceWidth int
	// BackgroundStart 背景区域起点，与拼图块区域之间留 2px 间隔
	BackgroundStart int
	// Edge 边缘提取参数
	Edge cv.EdgeOptions
	// Scan 阈值扫描参数
	Scan match.ScanOptions
	// DiagnosticsDir 诊断图片目录，为空时不保存
	DiagnosticsDir string
	// Logger 日志，nil 时使用默认 logger
	Logger *logger.Logger
}

// DefaultOptions 默认配置
func DefaultOptions() *Options {
	return &Options{
		PieceWidth:      59,
		BackgroundStart: 61,
		Edge:            cv.DefaultEdgeOptions(),
		Scan:            match.DefaultScanOptions(),
	}
}

// ApplyOptions 应用配置选项
func ApplyOptions(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithPieceWidth 设置拼图块区域宽度
func WithPieceWidth(w int) Option {
	return func(o *Options) {
		o.PieceWidth = w
	}
}

// WithBackgroundStart 设置背景区域起点
func WithBackgroundStart(x int) Option {
	return func(o *Options) {
		o.BackgroundStart = x
	}
}

// WithEdgeOptions 设置边缘提取参数
func WithEdgeOptions(e cv.EdgeOptions) Option {
	return func(o *Options) {
		o.Edge = e
	}
}

// WithScanOptions 设置阈值扫描参数
func WithScanOptions(s match.ScanOptions) Option {
	return func(o *Options) {
		o.Scan = s
	}
}

// WithDiagnosticsDir 保存中间图片
func WithDiagnosticsDir(dir string) Option {
	return func(o *Options) {
		o.DiagnosticsDir = dir
	}
}

// WithLogger 设置日志
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}
