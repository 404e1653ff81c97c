package puzzle

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestImageURLFromStyle(t *testing.T) {
	tests := []struct {
		style   string
		want    string
		wantErr bool
	}{
		{`background-image: url("https://static.example.com/bg/1.png");`, "https://static.example.com/bg/1.png", false},
		{`background-image:url('https://a/b.jpg')`, "https://a/b.jpg", false},
		{`background-image: url(https://a/c.png); width: 300px`, "https://a/c.png", false},
		{`width: 300px`, "", true},
		{`background-image: url("")`, "", true},
	}

	for _, tt := range tests {
		got, err := ImageURLFromStyle(tt.style)
		if (err != nil) != tt.wantErr {
			t.Errorf("ImageURLFromStyle(%q) error = %v, wantErr %v", tt.style, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ImageURLFromStyle(%q) = %q, want %q", tt.style, got, tt.want)
		}
	}
}

func TestImageURLFromHTML(t *testing.T) {
	html := `<html><body>
<div class="css-jyuqmw">
  <div class="bs-main-image" style="background-image: url(&quot;https://cdn.example.com/captcha/42.png&quot;); width: 310px;"></div>
  <div class="bs-main-image" style="background-image: url(&quot;https://cdn.example.com/captcha/other.png&quot;);"></div>
</div>
</body></html>`

	got, err := ImageURLFromHTML(html, ".bs-main-image")
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if got != "https://cdn.example.com/captcha/42.png" {
		t.Errorf("应取第一个元素的地址, got %q", got)
	}

	if _, err := ImageURLFromHTML(html, ".missing"); err == nil {
		t.Error("元素不存在时应返回错误")
	}
	if _, err := ImageURLFromHTML(`<div class="bs-main-image"></div>`, ".bs-main-image"); err == nil {
		t.Error("没有 style 属性时应返回错误")
	}
}

func TestFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bg.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("\x89PNG-fake"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)

	data, err := f.Fetch(srv.URL + "/bg.png")
	if err != nil {
		t.Fatalf("下载失败: %v", err)
	}
	if string(data) != "\x89PNG-fake" {
		t.Errorf("内容错误: %q", data)
	}

	if _, err := f.Fetch(srv.URL + "/missing.png"); err == nil {
		t.Error("404 应返回错误")
	}

	html := `<div class="bs-main-image" style="background-image: url('` + srv.URL + `/bg.png')"></div>`
	data, err = f.FetchBackgroundImage("", html, ".bs-main-image")
	if err != nil {
		t.Fatalf("FetchBackgroundImage 失败: %v", err)
	}
	if len(data) == 0 {
		t.Error("应下载到图片")
	}

	// 相对地址和省略协议的地址按页面地址补全
	host := strings.TrimPrefix(srv.URL, "http://")
	for _, ref := range []string{"/bg.png", "//" + host + "/bg.png"} {
		html := `<div class="bs-main-image" style="background-image: url('` + ref + `')"></div>`
		data, err := f.FetchBackgroundImage(srv.URL+"/login", html, ".bs-main-image")
		if err != nil {
			t.Fatalf("%s: FetchBackgroundImage 失败: %v", ref, err)
		}
		if string(data) != "\x89PNG-fake" {
			t.Errorf("%s: 内容错误: %q", ref, data)
		}
	}

	relative := `<div class="bs-main-image" style="background-image: url('/bg.png')"></div>`
	if _, err := f.FetchBackgroundImage("", relative, ".bs-main-image"); err == nil {
		t.Error("没有页面地址时相对地址应返回错误")
	}
}

func TestResolveImageURL(t *testing.T) {
	tests := []struct {
		page string
		ref  string
		want string
	}{
		{"https://coinmarketcap.com/", "https://static.cmc.com/bg.png", "https://static.cmc.com/bg.png"},
		{"https://coinmarketcap.com/login", "//static.cmc.com/bg.png", "https://static.cmc.com/bg.png"},
		{"https://coinmarketcap.com/a/b", "/captcha/bg.png", "https://coinmarketcap.com/captcha/bg.png"},
		{"https://coinmarketcap.com/a/b", "bg.png", "https://coinmarketcap.com/a/bg.png"},
		{"", "https://static.cmc.com/bg.png", "https://static.cmc.com/bg.png"},
	}

	for _, tt := range tests {
		got, err := ResolveImageURL(tt.page, tt.ref)
		if err != nil {
			t.Errorf("ResolveImageURL(%q, %q) 出错: %v", tt.page, tt.ref, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveImageURL(%q, %q) = %q, want %q", tt.page, tt.ref, got, tt.want)
		}
	}

	if _, err := ResolveImageURL("", "//static.cmc.com/bg.png"); err == nil {
		t.Error("没有页面地址时省略协议的地址应返回错误")
	}
}
