package session

import (
	"time"

	"github.com/zoeyai/cmcbot/internal/logger"
	"github.com/zoeyai/cmcbot/pkg/puzzle"
)

// Estimator 本地偏移估算
type Estimator interface {
	Estimate(screenshot []byte) (*puzzle.Estimate, error)
}

// RemoteSolver 远程识别偏移
type RemoteSolver interface {
	Solve(screenshot []byte) (int, error)
}

// Slider 拖动滑块并确认结果
type Slider interface {
	Slide(offset int) (bool, error)
}

// ImageFetcher 截图失败时从页面下载验证码图片
type ImageFetcher interface {
	FetchBackgroundImage(pageURL, html, selector string) ([]byte, error)
}

// Option 配置选项函数类型
type Option func(*Session)

// WithLogger 设置日志
func WithLogger(l *logger.Logger) Option {
	return func(s *Session) {
		s.baseLog = l
	}
}

// WithEstimator 替换本地估算
func WithEstimator(e Estimator) Option {
	return func(s *Session) {
		s.estimator = e
	}
}

// WithRemoteSolver 替换远程识别，nil 表示禁用
func WithRemoteSolver(r RemoteSolver) Option {
	return func(s *Session) {
		s.remote = r
		s.remoteSet = true
	}
}

// WithSlider 替换滑块驱动
func WithSlider(sl Slider) Option {
	return func(s *Session) {
		s.slider = sl
	}
}

// WithFetcher 替换图片下载
func WithFetcher(f ImageFetcher) Option {
	return func(s *Session) {
		s.fetcher = f
	}
}

// WithDetectTimeout 设置验证码出现的等待时间
func WithDetectTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.detectTimeout = d
	}
}

// WithAttemptDelay 设置两次尝试之间的间隔
func WithAttemptDelay(d time.Duration) Option {
	return func(s *Session) {
		s.attemptDelay = d
	}
}

// WithID 指定会话 ID
func WithID(id string) Option {
	return func(s *Session) {
		s.ID = id
	}
}
