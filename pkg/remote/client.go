// Package remote 通过 2captcha 坐标接口识别滑块位置
//
// 本地模板匹配失败时使用: 把背景图连同文字提示提交给 in.php，
// 轮询 res.php 拿到人工点击的横坐标。轮询次数有上限。
package remote

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"gopkg.in/h2non/gentleman.v2"

	"github.com/zoeyai/cmcbot/internal/logger"
)

// DefaultBaseURL 2captcha 服务地址
const DefaultBaseURL = "http://2captcha.com"

// ErrPollLimit 轮询次数用尽仍未拿到结果
var ErrPollLimit = errors.New("轮询次数用尽")

// Option 配置选项函数类型
type Option func(*Options)

// Options 客户端配置
type Options struct {
	// BaseURL 服务地址
	BaseURL string
	// InitialWait 提交后首次查询前的等待
	InitialWait time.Duration
	// PollInterval CAPCHA_NOT_READY 后的重试间隔
	PollInterval time.Duration
	// MaxPolls 最多查询次数
	MaxPolls int
	// RequestTimeout 单次 HTTP 请求超时
	RequestTimeout time.Duration
	// Logger 日志，nil 时使用默认 logger
	Logger *logger.Logger
}

// DefaultOptions 默认配置，最长等待约 20s + 12*10s
func DefaultOptions() *Options {
	return &Options{
		BaseURL:        DefaultBaseURL,
		InitialWait:    20 * time.Second,
		PollInterval:   10 * time.Second,
		MaxPolls:       12,
		RequestTimeout: 30 * time.Second,
	}
}

// WithBaseURL 设置服务地址
func WithBaseURL(u string) Option {
	return func(o *Options) {
		o.BaseURL = u
	}
}

// WithInitialWait 设置首次查询前的等待
func WithInitialWait(d time.Duration) Option {
	return func(o *Options) {
		o.InitialWait = d
	}
}

// WithPollInterval 设置重试间隔
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) {
		o.PollInterval = d
	}
}

// WithMaxPolls 设置最多查询次数
func WithMaxPolls(n int) Option {
	return func(o *Options) {
		o.MaxPolls = n
	}
}

// WithRequestTimeout 设置单次请求超时
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.RequestTimeout = d
	}
}

// WithLogger 设置日志
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// Client 2captcha 客户端
type Client struct {
	apiKey string
	opts   *Options
	http   *gentleman.Client
	log    *logger.Logger

	// sleep 可在测试中替换
	sleep func(time.Duration)
}

// NewClient 创建客户端
func NewClient(apiKey string, opts ...Option) *Client {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	l := o.Logger
	if l == nil {
		l = logger.Default()
	}

	h := gentleman.New()
	h.URL(o.BaseURL)
	h.Context.Client.Timeout = o.RequestTimeout

	return &Client{
		apiKey: apiKey,
		opts:   o,
		http:   h,
		log:    l.WithPrefix("[2captcha]"),
		sleep:  time.Sleep,
	}
}

// Submit 提交坐标验证码，返回任务 ID
func (c *Client) Submit(imageB64, instruction string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("未配置 2captcha API key")
	}

	form := url.Values{}
	form.Set("coordinatescaptcha", "1")
	form.Set("textinstructions", instruction)
	form.Set("body", imageB64)
	form.Set("key", c.apiKey)
	form.Set("method", "base64")

	req := c.http.Request()
	req.Path("/in.php")
	req.Method("POST")
	req.SetHeader("Content-Type", "application/x-www-form-urlencoded")
	req.BodyString(form.Encode())

	res, err := req.Send()
	if err != nil {
		return "", fmt.Errorf("提交验证码失败: %w", err)
	}
	text := res.String()
	c.log.Info("POST in.php -> %s", text)

	id, err := parseSubmit(text)
	if err != nil {
		return "", fmt.Errorf("提交验证码失败: %w", err)
	}
	return id, nil
}

// Poll 查询一次结果
func (c *Client) Poll(id string) (*Result, error) {
	req := c.http.Request()
	req.Path("/res.php")
	req.Method("GET")
	req.AddQuery("key", c.apiKey)
	req.AddQuery("action", "get")
	req.AddQuery("id", id)

	res, err := req.Send()
	if err != nil {
		return nil, fmt.Errorf("查询结果失败: %w", err)
	}
	text := res.String()
	c.log.Info("GET res.php -> %s", text)

	return ParseResult(text)
}

// WaitResult 等待 InitialWait 后轮询，最多 MaxPolls 次
func (c *Client) WaitResult(id string) (*Result, error) {
	c.sleep(c.opts.InitialWait)

	for i := 1; i <= c.opts.MaxPolls; i++ {
		res, err := c.Poll(id)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrNotReady) {
			return nil, err
		}
		if i < c.opts.MaxPolls {
			c.log.Debug("结果未就绪 (%d/%d)，%v 后重试", i, c.opts.MaxPolls, c.opts.PollInterval)
			c.sleep(c.opts.PollInterval)
		}
	}
	return nil, fmt.Errorf("%w: id=%s, 共 %d 次", ErrPollLimit, id, c.opts.MaxPolls)
}
