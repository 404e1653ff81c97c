package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// APIKeyEnv 环境变量中的 2captcha 密钥，优先级高于配置文件
const APIKeyEnv = "TWOCAPTCHA_API_KEY"

// SolveMode 验证码求解方式
type SolveMode string

const (
	SolveModeLocal  SolveMode = "local"  // 仅本地模板匹配
	SolveModeRemote SolveMode = "remote" // 仅 2captcha
	SolveModeAuto   SolveMode = "auto"   // 本地失败后回退到 2captcha
)

// Selectors 页面元素选择器
type Selectors struct {
	LoginButton      string `json:"login_button"`
	EmailInput       string `json:"email_input"`
	PasswordInput    string `json:"password_input"`
	SubmitButton     string `json:"submit_button"`
	Captcha          string `json:"captcha"`
	CaptchaImage     string `json:"captcha_image"`
	Slider           string `json:"slider"`
	SuccessIndicator string `json:"success_indicator"`
}

// Settings 机器人配置
type Settings struct {
	Email            string    `json:"email"`
	Password         string    `json:"password"`
	TwoCaptchaAPIKey string    `json:"2captcha_api_key"`
	SiteURL          string    `json:"site_url"`
	Backend          string    `json:"backend"`           // rod 或 selenium
	ChromeDriverPath string    `json:"chromedriver_path"` // selenium 后端使用
	ChromeDriverPort int       `json:"chromedriver_port"`
	Headless         bool      `json:"headless"`
	UserAgentsFile   string    `json:"user_agents_file"`
	DownloadsDir     string    `json:"downloads_dir"` // 诊断图片目录
	SolveMode        SolveMode `json:"solve_mode"`
	MaxAttempts      int       `json:"max_attempts"`
	RemoteOffset     int       `json:"remote_offset"`
	VerifyTimeoutSec int       `json:"verify_timeout_sec"`
	LogLevel         string    `json:"log_level"`
	LogFile          string    `json:"log_file"`
	Selectors        Selectors `json:"selectors"`
}

// DefaultSelectors CoinMarketCap 页面默认选择器
func DefaultSelectors() Selectors {
	return Selectors{
		LoginButton:      `[data-btnname="Log In"]`,
		EmailInput:       `input[type="email"]`,
		PasswordInput:    `input[type="password"]`,
		SubmitButton:     `[class="sc-a4a6801b-0 dPXqEb"]`,
		Captcha:          ".css-jyuqmw",
		CaptchaImage:     ".bs-main-image",
		Slider:           ".css-1w5k7wg",
		SuccessIndicator: ".avatar-img",
	}
}

// DefaultSettings 默认配置
func DefaultSettings() *Settings {
	return &Settings{
		SiteURL:          "https://www.coinmarketcap.com/",
		Backend:          "rod",
		ChromeDriverPath: "chromedriver",
		ChromeDriverPort: 9515,
		Headless:         false,
		DownloadsDir:     "",
		SolveMode:        SolveModeAuto,
		MaxAttempts:      4,
		RemoteOffset:     33,
		VerifyTimeoutSec: 10,
		LogLevel:         "INFO",
		LogFile:          "cmcbot.log",
		Selectors:        DefaultSelectors(),
	}
}

// VerifyTimeout 成功标识等待时间
func (s *Settings) VerifyTimeout() time.Duration {
	if s.VerifyTimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.VerifyTimeoutSec) * time.Second
}

// Validate 检查配置是否可用
func (s *Settings) Validate() error {
	switch s.SolveMode {
	case SolveModeLocal, SolveModeAuto:
	case SolveModeRemote:
		if s.TwoCaptchaAPIKey == "" {
			return fmt.Errorf("solve_mode=remote 需要 2captcha_api_key")
		}
	default:
		return fmt.Errorf("未知的 solve_mode: %q", s.SolveMode)
	}
	switch s.Backend {
	case "rod", "selenium":
	default:
		return fmt.Errorf("未知的 backend: %q", s.Backend)
	}
	if s.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts 必须大于 0")
	}
	return nil
}

// ApplyEnv 用环境变量覆盖配置
func (s *Settings) ApplyEnv() {
	if key := os.Getenv(APIKeyEnv); key != "" {
		s.TwoCaptchaAPIKey = key
	}
}

// Manager 配置管理器
type Manager struct {
	configDir  string
	configFile string
	mu         sync.RWMutex
}

// NewManager 创建配置管理器
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return NewManagerWithDir(filepath.Join(homeDir, ".cmcbot"))
}

// NewManagerWithDir 使用指定目录创建配置管理器
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "settings.json"),
	}
}

// ensureDir 确保配置目录存在
func (m *Manager) ensureDir() error {
	return os.MkdirAll(m.configDir, 0755)
}

// Load 加载配置，文件中缺失的字段保留默认值
func (m *Manager) Load() (*Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return DefaultSettings(), nil
	}

	data, err := os.ReadFile(m.configFile)
	if err != nil {
		return DefaultSettings(), fmt.Errorf("读取配置文件失败: %w", err)
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return DefaultSettings(), fmt.Errorf("解析配置文件失败: %w", err)
	}

	return settings, nil
}

// Save 保存配置
func (m *Manager) Save(settings *Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureDir(); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "    ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(m.configFile, data, 0600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// Clear 清除配置
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return nil
	}

	return os.Remove(m.configFile)
}

// GetConfigDir 获取配置目录
func (m *Manager) GetConfigDir() string {
	return m.configDir
}

// GetConfigFile 获取配置文件路径
func (m *Manager) GetConfigFile() string {
	return m.configFile
}

// Exists 检查配置文件是否存在
func (m *Manager) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configFile)
	return err == nil
}

// 全局配置管理器
var defaultManager = NewManager()

// GetDefaultManager 获取默认配置管理器
func GetDefaultManager() *Manager {
	return defaultManager
}

// Load 使用默认管理器加载配置
func Load() (*Settings, error) {
	return defaultManager.Load()
}

// Save 使用默认管理器保存配置
func Save(settings *Settings) error {
	return defaultManager.Save(settings)
}
