package session

import (
	"fmt"
	"time"
)

const (
	loginButtonTimeout = 5 * time.Second
	emailInputTimeout  = 5 * time.Second
)

// Login 打开站点，填写账号密码并提交，处理验证码后确认登录
func (s *Session) Login(email, password string) (*Report, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("缺少账号或密码")
	}
	sel := s.settings.Selectors

	s.log.Info("登录 %s: %s", s.settings.SiteURL, email)
	if err := s.b.Navigate(s.settings.SiteURL); err != nil {
		return nil, err
	}

	btn, err := s.b.WaitVisible(sel.LoginButton, loginButtonTimeout)
	if err != nil {
		return nil, fmt.Errorf("找不到登录按钮: %w", err)
	}
	if err := btn.Click(); err != nil {
		return nil, fmt.Errorf("点击登录按钮失败: %w", err)
	}

	emailInput, err := s.b.WaitVisible(sel.EmailInput, emailInputTimeout)
	if err != nil {
		return nil, fmt.Errorf("找不到邮箱输入框: %w", err)
	}
	if err := emailInput.Input(email); err != nil {
		return nil, fmt.Errorf("输入邮箱失败: %w", err)
	}

	pwInput, err := s.b.Element(sel.PasswordInput)
	if err != nil {
		return nil, fmt.Errorf("找不到密码输入框: %w", err)
	}
	if err := pwInput.Input(password); err != nil {
		return nil, fmt.Errorf("输入密码失败: %w", err)
	}

	submit, err := s.b.Element(sel.SubmitButton)
	if err != nil {
		return nil, fmt.Errorf("找不到提交按钮: %w", err)
	}
	if err := submit.Click(); err != nil {
		return nil, fmt.Errorf("提交失败: %w", err)
	}
	s.log.Info("已提交登录表单")

	report, err := s.SolveCaptcha()
	if err != nil {
		return report, err
	}
	if report.Solved {
		s.log.Info("登录成功")
		return report, nil
	}

	// 没有验证码时直接确认头像
	if _, err := s.b.WaitVisible(sel.SuccessIndicator, s.settings.VerifyTimeout()); err != nil {
		return report, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	s.log.Info("登录成功")
	return report, nil
}
