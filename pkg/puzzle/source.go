package puzzle

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/h2non/gentleman.v2"
)

// styleURL 匹配 background-image: url("...")
var styleURL = regexp.MustCompile(`url\(\s*["']?([^"')]+)["']?\s*\)`)

// ImageURLFromHTML 从页面 HTML 中取出验证码背景图地址
//
// 验证码图片不在 <img> 上，而是写在元素 style 属性的 background-image 中。
func ImageURLFromHTML(html, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("解析页面失败: %w", err)
	}

	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("页面中没有元素 %s", selector)
	}

	style, ok := sel.Attr("style")
	if !ok {
		return "", fmt.Errorf("元素 %s 没有 style 属性", selector)
	}
	return ImageURLFromStyle(style)
}

// ImageURLFromStyle 从 style 属性中取出图片地址
func ImageURLFromStyle(style string) (string, error) {
	m := styleURL.FindStringSubmatch(style)
	if len(m) < 2 || strings.TrimSpace(m[1]) == "" {
		return "", fmt.Errorf("style 中没有图片地址: %q", style)
	}
	return strings.TrimSpace(m[1]), nil
}

// ResolveImageURL 把 style 中的地址解析为绝对地址
//
// 相对地址和 //host/x.png 形式按 pageURL 补全；pageURL 为空时只接受绝对地址。
func ResolveImageURL(pageURL, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("图片地址无效 %q: %w", ref, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if pageURL == "" {
		return "", fmt.Errorf("图片地址 %q 不是绝对地址且没有页面地址可参照", ref)
	}
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return "", fmt.Errorf("页面地址无效 %q", pageURL)
	}
	return base.ResolveReference(u).String(), nil
}

// Fetcher 下载验证码图片
type Fetcher struct {
	client *gentleman.Client
}

// NewFetcher 创建下载器
func NewFetcher(timeout time.Duration) *Fetcher {
	client := gentleman.New()
	client.Context.Client.Timeout = timeout
	return &Fetcher{client: client}
}

// Fetch 下载图片
func (f *Fetcher) Fetch(imageURL string) ([]byte, error) {
	req := f.client.Request()
	req.URL(imageURL)
	req.Method("GET")

	res, err := req.Send()
	if err != nil {
		return nil, fmt.Errorf("下载验证码图片失败: %w", err)
	}
	if !res.Ok {
		return nil, fmt.Errorf("下载验证码图片失败: HTTP %d", res.StatusCode)
	}

	data := res.Bytes()
	if len(data) == 0 {
		return nil, fmt.Errorf("下载验证码图片失败: 响应为空")
	}
	return data, nil
}

// FetchBackgroundImage 从页面 HTML 解析图片地址，按 pageURL 补全后下载
func (f *Fetcher) FetchBackgroundImage(pageURL, html, selector string) ([]byte, error) {
	ref, err := ImageURLFromHTML(html, selector)
	if err != nil {
		return nil, err
	}
	imageURL, err := ResolveImageURL(pageURL, ref)
	if err != nil {
		return nil, err
	}
	return f.Fetch(imageURL)
}
