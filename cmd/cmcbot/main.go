package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/zoeyai/cmcbot/internal/logger"
	"github.com/zoeyai/cmcbot/pkg/browser"
	"github.com/zoeyai/cmcbot/pkg/browser/chrome"
	"github.com/zoeyai/cmcbot/pkg/browser/webdriver"
	"github.com/zoeyai/cmcbot/pkg/config"
	"github.com/zoeyai/cmcbot/pkg/process"
	"github.com/zoeyai/cmcbot/pkg/session"
)

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 命令行参数
	var (
		configDir   = flag.String("config-dir", "", "配置目录 (默认 ~/.cmcbot)")
		email       = flag.String("email", "", "CoinMarketCap 账号")
		password    = flag.String("password", "", "CoinMarketCap 密码")
		apiKey      = flag.String("api-key", "", "2captcha API key (也可用环境变量 "+config.APIKeyEnv+")")
		mode        = flag.String("mode", "", "验证码求解方式: local, remote, auto")
		backend     = flag.String("backend", "", "浏览器后端: rod, selenium")
		headless    = flag.Bool("headless", false, "无头模式")
		siteURL     = flag.String("url", "", "站点地址")
		logLevel    = flag.String("log-level", "", "日志级别: DEBUG, INFO, WARN, ERROR")
		diagDir     = flag.String("diagnostics", "", "诊断图片目录")
		cleanup     = flag.Bool("cleanup", false, "启动前清理残留的 chromedriver 进程")
		saveConfig  = flag.Bool("save", false, "保存配置到本地")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	// 显示版本
	if *showVersion {
		printVersion()
		return
	}

	mgr := config.GetDefaultManager()
	if *configDir != "" {
		mgr = config.NewManagerWithDir(*configDir)
	}

	// 显示帮助
	if *showHelp {
		printHelp(mgr)
		return
	}

	// 加载配置
	cfg, err := mgr.Load()
	if err != nil {
		fmt.Printf("[WARN] 加载配置失败: %v\n", err)
	}
	cfg.ApplyEnv()

	// 命令行参数优先级高于配置文件和环境变量
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if *email != "" {
		cfg.Email = *email
	}
	if *password != "" {
		cfg.Password = *password
	}
	if *apiKey != "" {
		cfg.TwoCaptchaAPIKey = *apiKey
	}
	if *mode != "" {
		cfg.SolveMode = config.SolveMode(*mode)
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if set["headless"] {
		cfg.Headless = *headless
	}
	if *siteURL != "" {
		cfg.SiteURL = *siteURL
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *diagDir != "" {
		cfg.DownloadsDir = *diagDir
	}

	// 验证必要参数
	if err := cfg.Validate(); err != nil {
		fmt.Printf("[ERROR] 配置错误: %v\n", err)
		os.Exit(1)
	}
	if cfg.Email == "" || cfg.Password == "" {
		fmt.Println("[ERROR] 缺少账号信息，请使用 -email 和 -password 参数")
		printHelp(mgr)
		os.Exit(1)
	}

	// 保存配置
	if *saveConfig {
		if err := mgr.Save(cfg); err != nil {
			fmt.Printf("[WARN] 保存配置失败: %v\n", err)
		} else {
			fmt.Printf("[INFO] 配置已保存到 %s\n", mgr.GetConfigFile())
		}
	}

	// 日志
	log := logger.Default()
	log.SetLevel(logger.ParseLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		if err := log.SetFile(true, cfg.LogFile); err != nil {
			fmt.Printf("[WARN] %v\n", err)
		}
	}

	// 打印启动信息
	fmt.Println("========================================")
	fmt.Printf("  CMC Bot v%s\n", Version)
	fmt.Println("========================================")
	fmt.Printf("站点: %s\n", cfg.SiteURL)
	fmt.Printf("后端: %s  模式: %s\n", cfg.Backend, cfg.SolveMode)
	fmt.Println()

	if *cleanup {
		n, err := process.CleanupDrivers()
		if err != nil {
			log.Warn("清理驱动进程出错: %v", err)
		}
		log.Info("已清理 %d 个残留进程", n)
	}

	code := run(cfg, log)
	log.Close()
	os.Exit(code)
}

// run 启动浏览器并登录，返回进程退出码
func run(cfg *config.Settings, log *logger.Logger) int {
	ua, err := cfg.PickUserAgent()
	if err != nil {
		log.Warn("读取 user agent 失败，使用默认值: %v", err)
	}

	opts := []browser.Option{
		browser.WithHeadless(cfg.Headless),
		browser.WithUserAgent(ua),
	}

	var b browser.Browser
	switch cfg.Backend {
	case "selenium":
		b, err = webdriver.Launch(webdriver.Config{
			DriverPath: cfg.ChromeDriverPath,
			Port:       cfg.ChromeDriverPort,
		}, opts...)
	default:
		b, err = chrome.Launch(opts...)
	}
	if err != nil {
		log.Error("启动浏览器失败: %v", err)
		return 1
	}
	defer b.Close()

	s := session.New(b, cfg, session.WithLogger(log))
	log.Info("会话 %s", s.ID)
	if dir := s.DiagnosticsDir(); dir != "" {
		log.Info("诊断图片保存到 %s", dir)
	}

	report, err := s.Login(cfg.Email, cfg.Password)
	if report != nil && report.Present {
		log.Info("验证码: 尝试 %d 次, 通过=%v, 偏移=%d (%s)", report.Attempts, report.Solved, report.Offset, report.Source)
		for _, ae := range report.Errors {
			log.Debug("  %v", ae)
		}
	}
	if err != nil {
		if errors.Is(err, session.ErrGaveUp) || errors.Is(err, session.ErrLoginFailed) {
			log.Error("登录未完成: %v", err)
		} else {
			log.Error("登录出错: %v", err)
		}
		return 1
	}

	log.Info("登录成功")
	return 0
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("CMC Bot v%s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}

// printHelp 打印帮助信息
func printHelp(mgr *config.Manager) {
	fmt.Println("CMC Bot - CoinMarketCap 登录与滑块验证码处理")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  cmcbot [选项]")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  -email string        账号")
	fmt.Println("  -password string     密码")
	fmt.Println("  -api-key string      2captcha API key")
	fmt.Println("  -mode string         验证码求解方式: local, remote, auto (默认 auto)")
	fmt.Println("  -backend string      浏览器后端: rod, selenium (默认 rod)")
	fmt.Println("  -headless            无头模式")
	fmt.Println("  -url string          站点地址")
	fmt.Println("  -log-level string    日志级别")
	fmt.Println("  -diagnostics string  诊断图片目录")
	fmt.Println("  -cleanup             启动前清理残留的 chromedriver 进程")
	fmt.Println("  -config-dir string   配置目录")
	fmt.Println("  -save                保存配置到本地")
	fmt.Println("  -version             显示版本信息")
	fmt.Println("  -help                显示帮助信息")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  # 本地匹配，失败时回退到 2captcha")
	fmt.Println("  cmcbot -email me@example.com -password PASS -api-key KEY")
	fmt.Println()
	fmt.Println("  # 使用 selenium 后端并保存配置")
	fmt.Println("  cmcbot -email me@example.com -password PASS -backend selenium -save")
	fmt.Println()
	fmt.Println("  # 使用已保存的配置")
	fmt.Println("  cmcbot")
	fmt.Println()
	fmt.Printf("配置文件位置: %s\n", mgr.GetConfigFile())
}
