// Package browsertest 提供记录调用的假浏览器
package browsertest

import (
	"fmt"
	"sync"
	"time"

	"github.com/zoeyai/cmcbot/pkg/browser"
)

// Drag 一次拖拽手势
type Drag struct {
	Selector string
	DX, DY   int
}

// Wait 一次等待调用
type Wait struct {
	Selector string
	Timeout  time.Duration
}

// Browser 假浏览器，WaitVisible 不会真正等待
type Browser struct {
	mu        sync.Mutex
	elements  map[string]*Element
	navigated []string
	waits     []Wait
	drags     []Drag
	closed    bool

	// PageHTML HTML() 的返回值
	PageHTML string
	// PageShot Screenshot() 的返回值
	PageShot []byte
	// OnDrag 拖拽后回调，可用于模拟验证成功后页面变化
	OnDrag func(b *Browser, d Drag)
}

var _ browser.Browser = (*Browser)(nil)

// New 创建假浏览器
func New() *Browser {
	return &Browser{elements: make(map[string]*Element)}
}

// Add 添加一个可见元素
func (b *Browser) Add(selector string) *Element {
	b.mu.Lock()
	defer b.mu.Unlock()

	el := &Element{Selector: selector, Visible: true, Attrs: map[string]string{}, b: b}
	b.elements[selector] = el
	return el
}

// Show 设置元素可见，元素不存在时自动添加
func (b *Browser) Show(selector string) *Element {
	b.mu.Lock()
	el, ok := b.elements[selector]
	b.mu.Unlock()
	if !ok {
		return b.Add(selector)
	}

	b.mu.Lock()
	el.Visible = true
	b.mu.Unlock()
	return el
}

// Hide 设置元素不可见
func (b *Browser) Hide(selector string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if el, ok := b.elements[selector]; ok {
		el.Visible = false
	}
}

// Remove 删除元素
func (b *Browser) Remove(selector string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.elements, selector)
}

// Drags 所有拖拽记录
func (b *Browser) Drags() []Drag {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Drag(nil), b.drags...)
}

// Waits 所有等待记录
func (b *Browser) Waits() []Wait {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Wait(nil), b.waits...)
}

// Navigated 打开过的地址
func (b *Browser) Navigated() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.navigated...)
}

// Closed 是否已关闭
func (b *Browser) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Browser) Navigate(url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.navigated = append(b.navigated, url)
	return nil
}

func (b *Browser) Element(selector string) (browser.Element, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	el, ok := b.elements[selector]
	if !ok {
		return nil, fmt.Errorf("%s: %w", selector, browser.ErrNotFound)
	}
	return el, nil
}

func (b *Browser) WaitVisible(selector string, timeout time.Duration) (browser.Element, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.waits = append(b.waits, Wait{Selector: selector, Timeout: timeout})

	el, ok := b.elements[selector]
	if !ok || !el.Visible {
		return nil, fmt.Errorf("%s: %w", selector, browser.ErrTimeout)
	}
	return el, nil
}

func (b *Browser) HTML() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.PageHTML, nil
}

func (b *Browser) Screenshot() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.PageShot, nil
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Element 假元素
type Element struct {
	Selector string
	Visible  bool
	Attrs    map[string]string
	// Shot Screenshot() 的返回值
	Shot []byte
	// Err 非空时所有操作返回该错误
	Err error

	Clicks int
	Inputs []string

	b *Browser
}

var _ browser.Element = (*Element)(nil)

func (e *Element) Click() error {
	if e.Err != nil {
		return e.Err
	}
	e.b.mu.Lock()
	e.Clicks++
	e.b.mu.Unlock()
	return nil
}

func (e *Element) Input(text string) error {
	if e.Err != nil {
		return e.Err
	}
	e.b.mu.Lock()
	e.Inputs = append(e.Inputs, text)
	e.b.mu.Unlock()
	return nil
}

func (e *Element) Attribute(name string) (string, error) {
	if e.Err != nil {
		return "", e.Err
	}
	e.b.mu.Lock()
	defer e.b.mu.Unlock()
	return e.Attrs[name], nil
}

func (e *Element) Screenshot() ([]byte, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	return e.Shot, nil
}

func (e *Element) DragBy(dx, dy int) error {
	if e.Err != nil {
		return e.Err
	}
	d := Drag{Selector: e.Selector, DX: dx, DY: dy}

	e.b.mu.Lock()
	e.b.drags = append(e.b.drags, d)
	hook := e.b.OnDrag
	e.b.mu.Unlock()

	if hook != nil {
		hook(e.b, d)
	}
	return nil
}
