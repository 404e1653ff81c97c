package remote

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrNotReady 服务端还在识别，稍后重试
	ErrNotReady = errors.New("CAPCHA_NOT_READY")
	// ErrUnsolvable 服务端放弃识别，本次尝试结束
	ErrUnsolvable = errors.New("ERROR_CAPTCHA_UNSOLVABLE")
	// ErrTooBig 图片超过服务端大小限制，重试无意义
	ErrTooBig = errors.New("ERROR_TOO_BIG_CAPTCHA_FILESIZE")
	// ErrService 其他服务端错误
	ErrService = errors.New("2captcha 返回错误")
	// ErrNoCoordinates 响应中没有坐标
	ErrNoCoordinates = errors.New("响应中没有坐标")
)

var (
	xPattern   = regexp.MustCompile(`x=(\d+)`)
	barPattern = regexp.MustCompile(`\|(\d+)`)
)

// Result res.php 的成功结果
type Result struct {
	// Raw 原始响应
	Raw string
	// Coordinates 按出现顺序的横坐标
	Coordinates []int
}

// First 第一个横坐标
func (r *Result) First() int {
	return r.Coordinates[0]
}

// ParseResult 解析 res.php 响应
//
//	OK|...                     -> 坐标
//	CAPCHA_NOT_READY           -> ErrNotReady
//	ERROR_CAPTCHA_UNSOLVABLE   -> ErrUnsolvable
//	ERROR_TOO_BIG_CAPTCHA_FILESIZE -> ErrTooBig
func ParseResult(text string) (*Result, error) {
	text = strings.TrimSpace(text)

	if err := classify(text); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(text, "OK|") {
		return nil, fmt.Errorf("%w: %s", ErrService, text)
	}

	coords, err := ParseCoordinates(text)
	if err != nil {
		return nil, err
	}
	return &Result{Raw: text, Coordinates: coords}, nil
}

// ParseCoordinates 提取横坐标，优先 x=N，没有时取 |N
func ParseCoordinates(text string) ([]int, error) {
	matches := xPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		matches = barPattern.FindAllStringSubmatch(text, -1)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCoordinates, text)
	}

	coords := make([]int, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("坐标解析失败 %q: %w", m[1], err)
		}
		coords = append(coords, v)
	}
	return coords, nil
}

// parseSubmit 解析 in.php 响应，返回任务 ID
func parseSubmit(text string) (string, error) {
	text = strings.TrimSpace(text)

	if err := classify(text); err != nil {
		return "", err
	}
	id, ok := strings.CutPrefix(text, "OK|")
	if !ok || strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: %s", ErrService, text)
	}
	return strings.TrimSpace(id), nil
}

func classify(text string) error {
	switch {
	case strings.Contains(text, "CAPCHA_NOT_READY"):
		return ErrNotReady
	case strings.Contains(text, "ERROR_CAPTCHA_UNSOLVABLE"):
		return ErrUnsolvable
	case strings.Contains(text, "ERROR_TOO_BIG_CAPTCHA_FILESIZE"):
		return ErrTooBig
	}
	return nil
}
