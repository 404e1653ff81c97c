package remote

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func screenshotPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := solidImage(w, h, color.RGBA{30, 60, 90, 255})
	// 左侧拼图块区域用不同颜色，确认提交的图片已裁掉
	for y := 0; y < h; y++ {
		for x := 0; x < 60 && x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSolverSolve(t *testing.T) {
	svc := &fakeService{submit: "OK|9", results: []string{"CAPCHA_NOT_READY", "OK|coordinates:x=112,y=40"}}
	c, _ := newTestClient(t, svc)

	dir := t.TempDir()
	opts := DefaultSolverOptions()
	opts.DiagnosticsDir = dir
	s := NewSolver(c, opts)

	offset, err := s.Solve(screenshotPNG(t, 300, 192))
	if err != nil {
		t.Fatalf("Solve 失败: %v", err)
	}
	if offset != 112+33 {
		t.Errorf("offset = %d, want %d", offset, 112+33)
	}

	// 提交的图片应是裁剪后的背景
	raw, err := base64.StdEncoding.DecodeString(svc.form["body"])
	if err != nil {
		t.Fatalf("body 不是 Base64: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("body 不是图片: %v", err)
	}
	if img.Bounds().Dx() != 240 || img.Bounds().Dy() != 192 {
		t.Errorf("提交图片尺寸错误: %v", img.Bounds())
	}
	if r, _, _, _ := img.At(5, 150).RGBA(); r>>8 == 255 {
		t.Error("拼图块区域应被裁掉")
	}

	if _, err := os.Stat(filepath.Join(dir, "remote_challenge.png")); err != nil {
		t.Errorf("诊断图片未保存: %v", err)
	}
}

func TestSolverBarFormat(t *testing.T) {
	svc := &fakeService{submit: "OK|9", results: []string{"OK|120"}}
	c, _ := newTestClient(t, svc)

	offset, err := NewSolver(c, DefaultSolverOptions()).Solve(screenshotPNG(t, 300, 192))
	if err != nil {
		t.Fatalf("Solve 失败: %v", err)
	}
	if offset != 153 {
		t.Errorf("offset = %d, want 153", offset)
	}
}

func TestSolverRejectsSmallOffset(t *testing.T) {
	svc := &fakeService{submit: "OK|9", results: []string{"OK|x=0"}}
	c, _ := newTestClient(t, svc)

	opts := DefaultSolverOptions()
	opts.Correction = 2
	_, err := NewSolver(c, opts).Solve(screenshotPNG(t, 300, 192))
	if !errors.Is(err, ErrBadOffset) {
		t.Errorf("应返回 ErrBadOffset, got %v", err)
	}
}

func TestSolverUnsolvable(t *testing.T) {
	svc := &fakeService{submit: "OK|9", results: []string{"ERROR_CAPTCHA_UNSOLVABLE"}}
	c, _ := newTestClient(t, svc)

	_, err := NewSolver(c, DefaultSolverOptions()).Solve(screenshotPNG(t, 300, 192))
	if !errors.Is(err, ErrUnsolvable) {
		t.Errorf("应返回 ErrUnsolvable, got %v", err)
	}
}

func TestSolverBadInput(t *testing.T) {
	svc := &fakeService{submit: "OK|9", results: []string{"OK|1"}}
	c, _ := newTestClient(t, svc)
	s := NewSolver(c, DefaultSolverOptions())

	if _, err := s.Solve([]byte("nope")); err == nil {
		t.Error("非法图片应返回错误")
	}
	if _, err := s.Solve(screenshotPNG(t, 50, 50)); err == nil {
		t.Error("截图过窄应返回错误")
	}
	if svc.form != nil {
		t.Error("输入无效时不应提交")
	}
}
