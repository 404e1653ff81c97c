package session

import (
	"errors"
	"fmt"

	"github.com/zoeyai/cmcbot/pkg/browser"
	"github.com/zoeyai/cmcbot/pkg/puzzle"
	"github.com/zoeyai/cmcbot/pkg/remote"
)

// Kind 尝试失败的类别
//
// 验证码没有出现不算失败，体现在 Report.Present 上，没有对应的 Kind
type Kind int

const (
	// KindUnknown 未分类
	KindUnknown Kind = iota
	// KindNoMatch 本地匹配找不到偏移
	KindNoMatch
	// KindNotReady 远程识别轮询次数用尽
	KindNotReady
	// KindRemoteFailed 远程识别明确失败 (无法识别/图片过大/结果无效)
	KindRemoteFailed
	// KindNotVerified 拖动后没有出现成功标识
	KindNotVerified
	// KindBrowser 截图、查找元素或拖动出错
	KindBrowser
)

func (k Kind) String() string {
	switch k {
	case KindNoMatch:
		return "no_match"
	case KindNotReady:
		return "not_ready"
	case KindRemoteFailed:
		return "remote_failed"
	case KindNotVerified:
		return "not_verified"
	case KindBrowser:
		return "browser"
	default:
		return "unknown"
	}
}

var (
	// ErrNotVerified 拖动后没有出现成功标识
	ErrNotVerified = errors.New("未出现成功标识")
	// ErrGaveUp 所有尝试都失败
	ErrGaveUp = errors.New("验证码未通过")
	// ErrLoginFailed 登录后没有出现头像
	ErrLoginFailed = errors.New("登录失败")
)

// AttemptError 单次尝试的错误
type AttemptError struct {
	Attempt int
	Kind    Kind
	Err     error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("第 %d 次尝试失败 [%s]: %v", e.Attempt, e.Kind, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

// Terminal 是否不必再尝试
func (e *AttemptError) Terminal() bool {
	return errors.Is(e.Err, remote.ErrTooBig)
}

// classifyError 对错误进行分类
func classifyError(attempt int, err error) *AttemptError {
	if err == nil {
		return nil
	}
	var ae *AttemptError
	if errors.As(err, &ae) {
		return ae
	}

	kind := KindUnknown
	switch {
	case errors.Is(err, puzzle.ErrNoMatch), errors.Is(err, puzzle.ErrEmptyPiece):
		kind = KindNoMatch
	case errors.Is(err, remote.ErrPollLimit), errors.Is(err, remote.ErrNotReady):
		kind = KindNotReady
	case errors.Is(err, remote.ErrUnsolvable), errors.Is(err, remote.ErrTooBig),
		errors.Is(err, remote.ErrBadOffset), errors.Is(err, remote.ErrService),
		errors.Is(err, remote.ErrNoCoordinates):
		kind = KindRemoteFailed
	case errors.Is(err, ErrNotVerified):
		kind = KindNotVerified
	case errors.Is(err, browser.ErrTimeout), errors.Is(err, browser.ErrNotFound):
		kind = KindBrowser
	}
	return &AttemptError{Attempt: attempt, Kind: kind, Err: err}
}
