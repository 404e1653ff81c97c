// Package session 组织一次登录会话中的验证码处理流程
//
// 一个 Session 绑定一个浏览器和一份配置，组件 (估算器、远程识别、滑块驱动)
// 都从这份配置构造，不依赖全局状态。
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/zoeyai/cmcbot/internal/logger"
	"github.com/zoeyai/cmcbot/pkg/browser"
	"github.com/zoeyai/cmcbot/pkg/config"
	"github.com/zoeyai/cmcbot/pkg/puzzle"
	"github.com/zoeyai/cmcbot/pkg/remote"
	"github.com/zoeyai/cmcbot/pkg/slider"
)

const (
	// DefaultDetectTimeout 等待验证码出现
	DefaultDetectTimeout = 10 * time.Second
	// DefaultAttemptDelay 两次尝试之间的间隔
	DefaultAttemptDelay = 3 * time.Second
	// captchaTimeout 每次尝试前等待验证码重新可见
	captchaTimeout = 10 * time.Second
	// fetchTimeout 下载验证码图片超时
	fetchTimeout = 15 * time.Second
)

// Source 偏移来源
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Report 验证码处理结果
type Report struct {
	// Present 是否出现了验证码
	Present bool
	// Solved 是否通过
	Solved bool
	// Attempts 实际尝试次数
	Attempts int
	// Offset 最后一次拖动的偏移
	Offset int
	// Source 最后一次偏移的来源
	Source Source
	// Errors 每次失败尝试的错误
	Errors []*AttemptError
}

// Session 一次登录会话
type Session struct {
	// ID 会话 ID，出现在日志和诊断目录名中
	ID string

	b        browser.Browser
	settings *config.Settings
	baseLog  *logger.Logger
	log      *logger.Logger

	estimator Estimator
	remote    RemoteSolver
	remoteSet bool
	slider    Slider
	fetcher   ImageFetcher

	detectTimeout time.Duration
	attemptDelay  time.Duration
	diagDir       string
	sleep         func(time.Duration)
}

// New 创建会话，未通过选项替换的组件按 settings 构造
func New(b browser.Browser, settings *config.Settings, opts ...Option) *Session {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	s := &Session{
		b:             b,
		settings:      settings,
		detectTimeout: DefaultDetectTimeout,
		attemptDelay:  DefaultAttemptDelay,
		sleep:         time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.baseLog == nil {
		s.baseLog = logger.Default()
	}
	s.log = s.baseLog.WithPrefix("[" + shortID(s.ID) + "]")

	if settings.DownloadsDir != "" {
		s.diagDir = filepath.Join(settings.DownloadsDir, s.ID)
	}

	sel := settings.Selectors
	if s.estimator == nil {
		s.estimator = puzzle.NewEstimator(
			puzzle.WithLogger(s.log),
			puzzle.WithDiagnosticsDir(s.diagDir),
		)
	}
	if !s.remoteSet && settings.TwoCaptchaAPIKey != "" && settings.SolveMode != config.SolveModeLocal {
		client := remote.NewClient(settings.TwoCaptchaAPIKey, remote.WithLogger(s.log))
		ro := remote.DefaultSolverOptions()
		ro.Correction = settings.RemoteOffset
		ro.DiagnosticsDir = s.diagDir
		s.remote = remote.NewSolver(client, ro)
	}
	if s.slider == nil {
		s.slider = slider.NewDriver(b,
			slider.WithSliderSelector(sel.Slider),
			slider.WithSuccessSelector(sel.SuccessIndicator),
			slider.WithVerifyTimeout(settings.VerifyTimeout()),
			slider.WithLogger(s.log),
		)
	}
	if s.fetcher == nil {
		s.fetcher = puzzle.NewFetcher(fetchTimeout)
	}
	return s
}

// Logger 会话日志
func (s *Session) Logger() *logger.Logger {
	return s.log
}

// DiagnosticsDir 诊断目录，未启用时为空
func (s *Session) DiagnosticsDir() string {
	return s.diagDir
}

// SolveCaptcha 处理登录后的滑块验证码
//
// 验证码在 DetectTimeout 内没有出现视为无需处理。出现时最多尝试
// MaxAttempts 次，每次重新截图；单次失败只记录并分类，不中断流程。
func (s *Session) SolveCaptcha() (*Report, error) {
	sel := s.settings.Selectors
	report := &Report{}

	if _, err := s.b.WaitVisible(sel.Captcha, s.detectTimeout); err != nil {
		if !errors.Is(err, browser.ErrTimeout) {
			s.log.Warn("检测验证码出错，按未出现处理: %v", err)
		}
		s.log.Info("未出现验证码")
		return report, nil
	}
	report.Present = true
	s.log.Info("出现验证码，开始处理")

	maxAttempts := s.settings.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	for i := 1; i <= maxAttempts; i++ {
		report.Attempts = i
		offset, source, err := s.attempt(i, maxAttempts)
		if err == nil {
			report.Solved = true
			report.Offset = offset
			report.Source = source
			return report, nil
		}

		ae := classifyError(i, err)
		report.Errors = append(report.Errors, ae)
		if source != "" {
			report.Offset = offset
			report.Source = source
		}
		s.log.Warn("%v", ae)

		if ae.Terminal() {
			s.log.Error("远程服务拒绝图片，停止重试")
			break
		}
		if i < maxAttempts && s.attemptDelay > 0 {
			s.sleep(s.attemptDelay)
		}
	}

	return report, fmt.Errorf("%w: 共尝试 %d 次, 最后错误: %v", ErrGaveUp, report.Attempts, report.Errors[len(report.Errors)-1])
}

// attempt 一次完整尝试: 截图 -> 估算偏移 -> 拖动 -> 确认
func (s *Session) attempt(n, total int) (int, Source, error) {
	log := s.log.WithPrefix(fmt.Sprintf("[attempt %d/%d]", n, total))

	shot, err := s.capture(log)
	if err != nil {
		return 0, "", err
	}
	s.saveScreenshot(n, shot)

	offset, source, err := s.estimate(log, shot)
	if err != nil {
		return 0, "", err
	}

	log.Info("偏移 %d (%s)", offset, source)
	ok, err := s.slider.Slide(offset)
	if err != nil {
		return offset, source, err
	}
	if !ok {
		return offset, source, ErrNotVerified
	}
	log.Info("验证通过")
	return offset, source, nil
}

// capture 对验证码元素截图，失败时从页面下载验证码图片
func (s *Session) capture(log *logger.Logger) ([]byte, error) {
	sel := s.settings.Selectors

	el, err := s.b.WaitVisible(sel.Captcha, captchaTimeout)
	if err != nil {
		return nil, fmt.Errorf("验证码不可见: %w", err)
	}

	shot, err := el.Screenshot()
	if err == nil && len(shot) > 0 {
		return shot, nil
	}
	log.Warn("验证码截图失败，改为下载原图: %v", err)

	html, herr := s.b.HTML()
	if herr != nil {
		return nil, fmt.Errorf("读取页面失败: %w", herr)
	}
	data, ferr := s.fetcher.FetchBackgroundImage(s.settings.SiteURL, html, sel.CaptchaImage)
	if ferr != nil {
		return nil, fmt.Errorf("获取验证码图片失败: %w", ferr)
	}
	return data, nil
}

// estimate 按 SolveMode 选择本地匹配或远程识别
func (s *Session) estimate(log *logger.Logger, shot []byte) (int, Source, error) {
	mode := s.settings.SolveMode

	if mode != config.SolveModeRemote {
		est, err := s.estimator.Estimate(shot)
		if err == nil {
			log.Debug("本地匹配 threshold=%.1f score=%.3f", est.Threshold, est.Score)
			return est.Offset, SourceLocal, nil
		}
		if mode == config.SolveModeLocal || s.remote == nil {
			return 0, "", err
		}
		log.Warn("本地匹配失败，回退到远程识别: %v", err)
	}

	if s.remote == nil {
		return 0, "", fmt.Errorf("未配置远程识别")
	}
	offset, err := s.remote.Solve(shot)
	if err != nil {
		return 0, "", err
	}
	return offset, SourceRemote, nil
}

func (s *Session) saveScreenshot(n int, shot []byte) {
	if s.diagDir == "" {
		return
	}
	if err := os.MkdirAll(s.diagDir, 0755); err != nil {
		s.log.Warn("创建诊断目录失败: %v", err)
		return
	}
	path := filepath.Join(s.diagDir, fmt.Sprintf("attempt_%d.png", n))
	if err := os.WriteFile(path, shot, 0644); err != nil {
		s.log.Warn("保存截图失败: %v", err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
