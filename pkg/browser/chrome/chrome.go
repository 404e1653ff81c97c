// Package chrome 基于 go-rod 的浏览器实现
package chrome

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/zoeyai/cmcbot/pkg/browser"
)

// dragSteps 拖拽时鼠标移动的中间步数
const dragSteps = 15

// Browser go-rod 浏览器
type Browser struct {
	opts    *browser.Options
	launch  *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
}

var _ browser.Browser = (*Browser)(nil)

// Launch 启动 Chrome 并打开一个 stealth 页面
func Launch(opts ...browser.Option) (*Browser, error) {
	o := browser.ApplyOptions(opts...)

	l := launcher.New().
		Headless(o.Headless).
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", fmt.Sprintf("%d,%d", o.WindowWidth, o.WindowHeight))

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动 Chrome 失败: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("连接 Chrome 失败: %w", err)
	}

	page, err := stealth.Page(b)
	if err != nil {
		b.Close()
		l.Kill()
		return nil, fmt.Errorf("创建页面失败: %w", err)
	}

	if o.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: o.UserAgent}); err != nil {
			b.Close()
			l.Kill()
			return nil, fmt.Errorf("设置 User-Agent 失败: %w", err)
		}
	}

	return &Browser{opts: o, launch: l, browser: b, page: page}, nil
}

// Page 底层页面
func (c *Browser) Page() *rod.Page {
	return c.page
}

func (c *Browser) Navigate(url string) error {
	p := c.page.Timeout(c.opts.PageLoadTimeout)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("打开页面失败: %w", wrapTimeout(err))
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("等待页面加载失败: %w", wrapTimeout(err))
	}
	return nil
}

func (c *Browser) Element(selector string) (browser.Element, error) {
	has, el, err := c.page.Has(selector)
	if err != nil {
		return nil, fmt.Errorf("查找元素 %s 失败: %w", selector, err)
	}
	if !has {
		return nil, fmt.Errorf("%s: %w", selector, browser.ErrNotFound)
	}
	return &Element{el: el}, nil
}

func (c *Browser) WaitVisible(selector string, timeout time.Duration) (browser.Element, error) {
	p := c.page.Timeout(timeout)

	el, err := p.Element(selector)
	if err != nil {
		p.CancelTimeout()
		return nil, fmt.Errorf("%s: %w", selector, wrapTimeout(err))
	}
	if err := el.WaitVisible(); err != nil {
		p.CancelTimeout()
		return nil, fmt.Errorf("%s: %w", selector, wrapTimeout(err))
	}
	p.CancelTimeout()

	// 后续操作不继承等待超时
	return &Element{el: el.CancelTimeout()}, nil
}

func (c *Browser) HTML() (string, error) {
	html, err := c.page.HTML()
	if err != nil {
		return "", fmt.Errorf("读取页面源码失败: %w", err)
	}
	return html, nil
}

func (c *Browser) Screenshot() ([]byte, error) {
	data, err := c.page.Screenshot(false, nil)
	if err != nil {
		return nil, fmt.Errorf("页面截图失败: %w", err)
	}
	return data, nil
}

func (c *Browser) Close() error {
	var err error
	if c.browser != nil {
		err = c.browser.Close()
		c.browser = nil
		c.page = nil
	}
	if c.launch != nil {
		c.launch.Kill()
		c.launch = nil
	}
	return err
}

// Element go-rod 元素
type Element struct {
	el *rod.Element
}

var _ browser.Element = (*Element)(nil)

func (e *Element) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *Element) Input(text string) error {
	return e.el.Input(text)
}

func (e *Element) Attribute(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (e *Element) Screenshot() ([]byte, error) {
	data, err := e.el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("元素截图失败: %w", err)
	}
	return data, nil
}

// DragBy 鼠标移到元素中心，按下，线性移动 (dx, dy)，松开
func (e *Element) DragBy(dx, dy int) error {
	shape, err := e.el.Shape()
	if err != nil {
		return fmt.Errorf("获取元素位置失败: %w", err)
	}
	box := shape.Box()
	if box == nil {
		return fmt.Errorf("元素不可见，无法拖动")
	}

	start := proto.Point{X: box.X + box.Width/2, Y: box.Y + box.Height/2}
	end := proto.Point{X: start.X + float64(dx), Y: start.Y + float64(dy)}

	mouse := e.el.Page().Mouse
	if err := mouse.MoveTo(start); err != nil {
		return fmt.Errorf("移动鼠标失败: %w", err)
	}
	if err := mouse.Down(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("按下鼠标失败: %w", err)
	}
	if err := mouse.MoveLinear(end, dragSteps); err != nil {
		mouse.Up(proto.InputMouseButtonLeft, 1)
		return fmt.Errorf("拖动失败: %w", err)
	}
	if err := mouse.Up(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("松开鼠标失败: %w", err)
	}
	return nil
}

func wrapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", browser.ErrTimeout, err)
	}
	return err
}
