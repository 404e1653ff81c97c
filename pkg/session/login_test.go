package session

import (
	"errors"
	"testing"

	"github.com/zoeyai/cmcbot/pkg/browser/browsertest"
	"github.com/zoeyai/cmcbot/pkg/config"
	"github.com/zoeyai/cmcbot/pkg/puzzle"
)

func loginPage() *browsertest.Browser {
	sel := config.DefaultSelectors()
	b := browsertest.New()
	b.Add(sel.LoginButton)
	b.Add(sel.EmailInput)
	b.Add(sel.PasswordInput)
	b.Add(sel.SubmitButton)
	return b
}

func TestLoginWithCaptcha(t *testing.T) {
	sel := config.DefaultSelectors()
	b := loginPage()
	b.Add(sel.Captcha).Shot = []byte("png")
	b.Add(sel.Slider)
	b.OnDrag = func(fb *browsertest.Browser, d browsertest.Drag) {
		fb.Show(sel.SuccessIndicator)
	}

	s := newSession(b, testSettings(),
		WithEstimator(&scriptedEstimator{results: []*puzzle.Estimate{{Offset: 145}}}),
		WithRemoteSolver(nil))

	report, err := s.Login("me@example.com", "secret")
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}
	if !report.Solved {
		t.Errorf("验证码应通过: %+v", report)
	}

	if nav := b.Navigated(); len(nav) != 1 || nav[0] != testSettings().SiteURL {
		t.Errorf("打开的地址错误: %v", nav)
	}
	email, _ := b.Element(sel.EmailInput)
	if got := email.(*browsertest.Element).Inputs; len(got) != 1 || got[0] != "me@example.com" {
		t.Errorf("邮箱输入错误: %v", got)
	}
	pw, _ := b.Element(sel.PasswordInput)
	if got := pw.(*browsertest.Element).Inputs; len(got) != 1 || got[0] != "secret" {
		t.Errorf("密码输入错误: %v", got)
	}
	submit, _ := b.Element(sel.SubmitButton)
	if submit.(*browsertest.Element).Clicks != 1 {
		t.Error("应点击提交按钮一次")
	}
}

func TestLoginWithoutCaptcha(t *testing.T) {
	sel := config.DefaultSelectors()
	b := loginPage()
	b.Add(sel.SuccessIndicator)

	report, err := newSession(b, testSettings()).Login("a@b.c", "pw")
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}
	if report.Present {
		t.Errorf("不应出现验证码: %+v", report)
	}
}

func TestLoginFailed(t *testing.T) {
	b := loginPage()

	_, err := newSession(b, testSettings()).Login("a@b.c", "pw")
	if !errors.Is(err, ErrLoginFailed) {
		t.Errorf("应返回 ErrLoginFailed, got %v", err)
	}
}

func TestLoginMissingElements(t *testing.T) {
	if _, err := newSession(browsertest.New(), testSettings()).Login("a@b.c", "pw"); err == nil {
		t.Error("缺少登录按钮应返回错误")
	}
	if _, err := newSession(loginPage(), testSettings()).Login("", "pw"); err == nil {
		t.Error("缺少账号应返回错误")
	}
}
