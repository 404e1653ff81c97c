// Package webdriver 基于 selenium + chromedriver 的浏览器实现
package webdriver

import (
	"errors"
	"fmt"
	"time"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"

	"github.com/zoeyai/cmcbot/pkg/browser"
)

// Config chromedriver 参数
type Config struct {
	// DriverPath chromedriver 可执行文件
	DriverPath string
	// Port chromedriver 监听端口
	Port int
}

// Browser selenium 浏览器
type Browser struct {
	opts    *browser.Options
	service *selenium.Service
	wd      selenium.WebDriver
}

var _ browser.Browser = (*Browser)(nil)

// Launch 启动 chromedriver 并创建会话
func Launch(cfg Config, opts ...browser.Option) (*Browser, error) {
	o := browser.ApplyOptions(opts...)

	service, err := selenium.NewChromeDriverService(cfg.DriverPath, cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("启动 chromedriver 失败: %w", err)
	}

	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chromeCapabilities(o))

	wd, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d", cfg.Port))
	if err != nil {
		service.Stop()
		return nil, fmt.Errorf("创建 WebDriver 会话失败: %w", err)
	}

	if err := wd.SetPageLoadTimeout(o.PageLoadTimeout); err != nil {
		wd.Quit()
		service.Stop()
		return nil, fmt.Errorf("设置页面加载超时失败: %w", err)
	}

	return &Browser{opts: o, service: service, wd: wd}, nil
}

// chromeCapabilities 关闭自动化提示，拖拽使用旧版鼠标接口所以不启用 W3C 模式
func chromeCapabilities(o *browser.Options) chrome.Capabilities {
	args := []string{
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-blink-features=AutomationControlled",
		fmt.Sprintf("--window-size=%d,%d", o.WindowWidth, o.WindowHeight),
	}
	if o.Headless {
		args = append(args, "--headless=new")
	}
	if o.UserAgent != "" {
		args = append(args, "--user-agent="+o.UserAgent)
	}

	return chrome.Capabilities{
		Args:            args,
		ExcludeSwitches: []string{"enable-automation"},
		Prefs: map[string]interface{}{
			"credentials_enable_service":       false,
			"profile.password_manager_enabled": false,
		},
		W3C: false,
	}
}

// Driver 底层 WebDriver
func (b *Browser) Driver() selenium.WebDriver {
	return b.wd
}

func (b *Browser) Navigate(url string) error {
	if err := b.wd.Get(url); err != nil {
		return fmt.Errorf("打开页面失败: %w", err)
	}
	return nil
}

func (b *Browser) Element(selector string) (browser.Element, error) {
	el, err := b.wd.FindElement(selenium.ByCSSSelector, selector)
	if err != nil {
		return nil, fmt.Errorf("%s: %w (%v)", selector, browser.ErrNotFound, err)
	}
	return &Element{wd: b.wd, el: el}, nil
}

func (b *Browser) WaitVisible(selector string, timeout time.Duration) (browser.Element, error) {
	var found selenium.WebElement

	cond := func(wd selenium.WebDriver) (bool, error) {
		el, err := wd.FindElement(selenium.ByCSSSelector, selector)
		if err != nil {
			return false, nil
		}
		visible, err := el.IsDisplayed()
		if err != nil || !visible {
			return false, nil
		}
		found = el
		return true, nil
	}

	if err := b.wd.WaitWithTimeout(cond, timeout); err != nil {
		return nil, fmt.Errorf("%s: %w (%v)", selector, browser.ErrTimeout, err)
	}
	if found == nil {
		return nil, fmt.Errorf("%s: %w", selector, browser.ErrTimeout)
	}
	return &Element{wd: b.wd, el: found}, nil
}

func (b *Browser) HTML() (string, error) {
	src, err := b.wd.PageSource()
	if err != nil {
		return "", fmt.Errorf("读取页面源码失败: %w", err)
	}
	return src, nil
}

func (b *Browser) Screenshot() ([]byte, error) {
	data, err := b.wd.Screenshot()
	if err != nil {
		return nil, fmt.Errorf("页面截图失败: %w", err)
	}
	return data, nil
}

func (b *Browser) Close() error {
	var errs []error
	if b.wd != nil {
		errs = append(errs, b.wd.Quit())
		b.wd = nil
	}
	if b.service != nil {
		errs = append(errs, b.service.Stop())
		b.service = nil
	}
	return errors.Join(errs...)
}

// Element selenium 元素
type Element struct {
	wd selenium.WebDriver
	el selenium.WebElement
}

var _ browser.Element = (*Element)(nil)

func (e *Element) Click() error {
	return e.el.Click()
}

func (e *Element) Input(text string) error {
	return e.el.SendKeys(text)
}

func (e *Element) Attribute(name string) (string, error) {
	return e.el.GetAttribute(name)
}

func (e *Element) Screenshot() ([]byte, error) {
	data, err := e.el.Screenshot(true)
	if err != nil {
		return nil, fmt.Errorf("元素截图失败: %w", err)
	}
	return data, nil
}

// DragBy 鼠标移到元素中心，按下，移动 (dx, dy)，松开
func (e *Element) DragBy(dx, dy int) error {
	size, err := e.el.Size()
	if err != nil {
		return fmt.Errorf("获取元素尺寸失败: %w", err)
	}
	cx, cy := size.Width/2, size.Height/2

	if err := e.el.MoveTo(cx, cy); err != nil {
		return fmt.Errorf("移动鼠标失败: %w", err)
	}
	if err := e.wd.ButtonDown(); err != nil {
		return fmt.Errorf("按下鼠标失败: %w", err)
	}
	// MoveTo 的坐标相对元素左上角
	if err := e.el.MoveTo(cx+dx, cy+dy); err != nil {
		e.wd.ButtonUp()
		return fmt.Errorf("拖动失败: %w", err)
	}
	if err := e.wd.ButtonUp(); err != nil {
		return fmt.Errorf("松开鼠标失败: %w", err)
	}
	return nil
}
