// Package slider 拖动验证码滑块并确认结果
package slider

import (
	"errors"
	"fmt"
	"time"

	"github.com/zoeyai/cmcbot/internal/logger"
	"github.com/zoeyai/cmcbot/pkg/browser"
)

// Option 配置选项函数类型
type Option func(*Options)

// Options 滑块配置
type Options struct {
	// SliderSelector 滑块控件
	SliderSelector string
	// SuccessSelector 验证通过后出现的元素
	SuccessSelector string
	// VerifyTimeout 等待成功标识的时间
	VerifyTimeout time.Duration
	// Logger 日志，nil 时使用默认 logger
	Logger *logger.Logger
}

// DefaultOptions 默认配置
func DefaultOptions() *Options {
	return &Options{
		SliderSelector:  ".css-1w5k7wg",
		SuccessSelector: ".avatar-img",
		VerifyTimeout:   10 * time.Second,
	}
}

// WithSliderSelector 设置滑块选择器
func WithSliderSelector(sel string) Option {
	return func(o *Options) {
		o.SliderSelector = sel
	}
}

// WithSuccessSelector 设置成功标识选择器
func WithSuccessSelector(sel string) Option {
	return func(o *Options) {
		o.SuccessSelector = sel
	}
}

// WithVerifyTimeout 设置成功标识等待时间
func WithVerifyTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.VerifyTimeout = d
	}
}

// WithLogger 设置日志
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// Driver 滑块驱动
type Driver struct {
	b    browser.Browser
	opts *Options
	log  *logger.Logger
}

// NewDriver 创建滑块驱动
func NewDriver(b browser.Browser, opts ...Option) *Driver {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	l := o.Logger
	if l == nil {
		l = logger.Default()
	}
	return &Driver{b: b, opts: o, log: l.WithPrefix("[slider]")}
}

// Slide 把滑块向右拖动 offset 像素，然后等待成功标识
//
// 只做一次拖拽。成功标识在 VerifyTimeout 内出现返回 true；
// 未出现返回 false 和 nil，表示本次尝试失败但不是错误。
func (d *Driver) Slide(offset int) (bool, error) {
	start := time.Now()
	if offset < 0 {
		return false, fmt.Errorf("偏移不能为负数: %d", offset)
	}

	el, err := d.b.Element(d.opts.SliderSelector)
	if err != nil {
		return false, fmt.Errorf("查找滑块失败: %w", err)
	}

	d.log.Info("拖动滑块 %d px", offset)
	if err := el.DragBy(offset, 0); err != nil {
		return false, fmt.Errorf("拖动滑块失败: %w", err)
	}

	_, err = d.b.WaitVisible(d.opts.SuccessSelector, d.opts.VerifyTimeout)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	switch {
	case err == nil:
		d.log.LogEvent("slide", true, elapsed, fmt.Sprintf("offset=%d", offset))
		return true, nil
	case errors.Is(err, browser.ErrTimeout):
		d.log.LogEvent("slide", false, elapsed, fmt.Sprintf("offset=%d 未出现成功标识", offset))
		return false, nil
	default:
		return false, fmt.Errorf("等待成功标识失败: %w", err)
	}
}
