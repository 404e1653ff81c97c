// Package browser 定义机器人使用的浏览器能力
//
// 业务代码只依赖 Browser/Element 接口，具体实现有:
//   - chrome: go-rod + stealth，直接通过 CDP 控制 Chrome
//   - webdriver: tebeka/selenium + chromedriver
//   - browsertest: 记录调用的假实现，用于测试
package browser

import (
	"errors"
	"time"
)

var (
	// ErrTimeout 等待元素超时
	ErrTimeout = errors.New("等待元素超时")
	// ErrNotFound 页面中没有该元素
	ErrNotFound = errors.New("元素不存在")
)

// Browser 浏览器会话
type Browser interface {
	// Navigate 打开页面并等待加载
	Navigate(url string) error
	// Element 立即查找元素，不存在时返回 ErrNotFound
	Element(selector string) (Element, error)
	// WaitVisible 等待元素可见，超时返回 ErrTimeout
	WaitVisible(selector string, timeout time.Duration) (Element, error)
	// HTML 当前页面源码
	HTML() (string, error)
	// Screenshot 整页截图 (PNG)
	Screenshot() ([]byte, error)
	// Close 关闭浏览器
	Close() error
}

// Element 页面元素
type Element interface {
	Click() error
	// Input 向输入框键入文本
	Input(text string) error
	// Attribute 读取属性，属性不存在时返回空串
	Attribute(name string) (string, error)
	// Screenshot 元素截图 (PNG)
	Screenshot() ([]byte, error)
	// DragBy 按住元素中心，拖动 (dx, dy) 后松开，只产生一次拖拽手势
	DragBy(dx, dy int) error
}

// Options 浏览器启动参数
type Options struct {
	// Headless 无头模式
	Headless bool
	// UserAgent 为空时使用浏览器默认值
	UserAgent string
	// PageLoadTimeout 页面加载超时
	PageLoadTimeout time.Duration
	// WindowWidth/WindowHeight 窗口尺寸
	WindowWidth  int
	WindowHeight int
}

// Option 配置选项函数类型
type Option func(*Options)

// DefaultOptions 默认配置
func DefaultOptions() *Options {
	return &Options{
		Headless:        false,
		PageLoadTimeout: 30 * time.Second,
		WindowWidth:     1366,
		WindowHeight:    900,
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

// WithHeadless 设置无头模式
func WithHeadless(headless bool) Option {
	return func(o *Options) {
		o.Headless = headless
	}
}

// WithUserAgent 设置 User-Agent
func WithUserAgent(ua string) Option {
	return func(o *Options) {
		o.UserAgent = ua
	}
}

// WithPageLoadTimeout 设置页面加载超时
func WithPageLoadTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.PageLoadTimeout = d
	}
}

// WithWindowSize 设置窗口尺寸
func WithWindowSize(w, h int) Option {
	return func(o *Options) {
		o.WindowWidth = w
		o.WindowHeight = h
	}
}
