package remote

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/zoeyai/cmcbot/internal/logger"
)

// ErrBadOffset 修正后的偏移过小，视为无效结果
var ErrBadOffset = errors.New("远程识别结果无效")

// SolverOptions 远程识别参数
type SolverOptions struct {
	// BackgroundStart 提交前裁掉左侧拼图块，从该列开始保留
	BackgroundStart int
	// Correction 点击位置是拼图右上角，加上该值换算成滑块偏移
	Correction int
	// MinOffset 修正后小于该值的结果丢弃
	MinOffset int
	// DiagnosticsDir 保存提交的图片，为空时不保存
	DiagnosticsDir string
}

// DefaultSolverOptions 默认参数
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		BackgroundStart: 60,
		Correction:      33,
		MinOffset:       5,
	}
}

// Solver 远程识别滑块偏移
type Solver struct {
	client *Client
	opts   SolverOptions
	log    *logger.Logger
}

// NewSolver 创建远程识别器
func NewSolver(client *Client, opts SolverOptions) *Solver {
	return &Solver{client: client, opts: opts, log: client.log}
}

// Solve 裁剪背景、叠加提示、提交并轮询，返回修正后的偏移
func (s *Solver) Solve(screenshot []byte) (int, error) {
	start := time.Now()

	src, _, err := image.Decode(bytes.NewReader(screenshot))
	if err != nil {
		return 0, fmt.Errorf("解码截图失败: %w", err)
	}

	bg, err := cropFrom(src, s.opts.BackgroundStart)
	if err != nil {
		return 0, err
	}

	payload, err := ComposeChallenge(bg, OverlayText)
	if err != nil {
		return 0, err
	}
	s.saveDiagnostics(payload)

	b64, err := EncodeBase64(payload)
	if err != nil {
		return 0, err
	}

	id, err := s.client.Submit(b64, Instruction)
	if err != nil {
		return 0, err
	}
	s.log.Info("已提交, id=%s, 等待识别", id)

	res, err := s.client.WaitResult(id)
	if err != nil {
		s.log.LogEvent("remote", false, msSince(start), err.Error())
		return 0, err
	}

	offset := res.First() + s.opts.Correction
	if offset < s.opts.MinOffset {
		s.log.LogEvent("remote", false, msSince(start), fmt.Sprintf("x=%d 修正后 %d", res.First(), offset))
		return 0, fmt.Errorf("%w: %d < %d", ErrBadOffset, offset, s.opts.MinOffset)
	}

	s.log.LogEvent("remote", true, msSince(start), fmt.Sprintf("x=%d offset=%d", res.First(), offset))
	return offset, nil
}

func (s *Solver) saveDiagnostics(payload []byte) {
	if s.opts.DiagnosticsDir == "" {
		return
	}
	if err := os.MkdirAll(s.opts.DiagnosticsDir, 0755); err != nil {
		s.log.Warn("创建诊断目录失败: %v", err)
		return
	}
	path := filepath.Join(s.opts.DiagnosticsDir, "remote_challenge.png")
	if err := os.WriteFile(path, payload, 0644); err != nil {
		s.log.Warn("保存诊断图片失败: %v", err)
	}
}

// cropFrom 保留 [x, width) 列，结果原点为 (0, 0)
func cropFrom(src image.Image, x int) (*image.RGBA, error) {
	b := src.Bounds()
	if x < 0 || b.Dx() <= x {
		return nil, fmt.Errorf("截图宽度 %d 不足以裁剪背景 (起点 %d)", b.Dx(), x)
	}

	rect := image.Rect(0, 0, b.Dx()-x, b.Dy())
	dst := image.NewRGBA(rect)
	draw.Draw(dst, rect, src, image.Pt(b.Min.X+x, b.Min.Y), draw.Src)
	return dst, nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
