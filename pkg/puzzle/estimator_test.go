package puzzle

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/zoeyai/cmcbot/internal/logger"
	"github.com/zoeyai/cmcbot/pkg/puzzle/puzzletest"
)

func quietLogger() *logger.Logger {
	return logger.NewWithWriter(&bytes.Buffer{})
}

func TestEstimateRecoversOffset(t *testing.T) {
	est := NewEstimator(WithLogger(quietLogger()))

	for _, offset := range []int{20, 87, 145} {
		shot := puzzletest.PNG(puzzletest.Options{Offset: offset, Piece: true, Decoy: true})

		res, err := est.Estimate(shot)
		if err != nil {
			t.Fatalf("offset=%d: 估算失败: %v", offset, err)
		}
		t.Logf("offset=%d -> %d (threshold=%.1f score=%.3f, %v)", offset, res.Offset, res.Threshold, res.Score, res.Elapsed)

		if d := res.Offset - offset; d < -1 || d > 1 {
			t.Errorf("offset=%d: got %d, 误差超过 1px", offset, res.Offset)
		}
		if res.PieceRect.Empty() || res.PieceRect.Max.X > 59 {
			t.Errorf("offset=%d: 拼图块外接矩形错误: %v", offset, res.PieceRect)
		}
	}
}

func TestEstimateNoMatch(t *testing.T) {
	est := NewEstimator(WithLogger(quietLogger()))

	// 背景中没有缺口
	_, err := est.Estimate(puzzletest.PNG(puzzletest.Options{Offset: -1, Piece: true}))
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("应返回 ErrNoMatch, got %v", err)
	}
}

func TestEstimateEmptyPiece(t *testing.T) {
	est := NewEstimator(WithLogger(quietLogger()))

	_, err := est.Estimate(puzzletest.PNG(puzzletest.Options{Offset: 50}))
	if !errors.Is(err, ErrEmptyPiece) {
		t.Errorf("应返回 ErrEmptyPiece, got %v", err)
	}
}

func TestEstimateTooNarrow(t *testing.T) {
	est := NewEstimator(WithLogger(quietLogger()))

	img := image.NewRGBA(image.Rect(0, 0, 61, 100))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if _, err := est.Estimate(buf.Bytes()); err == nil {
		t.Error("截图宽度不足时应返回错误")
	}
}

func TestEstimateInvalidImage(t *testing.T) {
	est := NewEstimator(WithLogger(quietLogger()))
	if _, err := est.Estimate([]byte("not an image")); err == nil {
		t.Error("非法图像应返回错误")
	}
}

func TestEstimateImage(t *testing.T) {
	est := NewEstimator(WithLogger(quietLogger()))

	res, err := est.EstimateImage(puzzletest.Screenshot(puzzletest.Options{Offset: 120, Piece: true}))
	if err != nil {
		t.Fatalf("估算失败: %v", err)
	}
	if d := res.Offset - 120; d < -1 || d > 1 {
		t.Errorf("got %d, want 120±1", res.Offset)
	}
}

func TestEstimateDiagnostics(t *testing.T) {
	dir := t.TempDir()
	est := NewEstimator(WithLogger(quietLogger()), WithDiagnosticsDir(dir))

	if _, err := est.Estimate(puzzletest.PNG(puzzletest.Options{Offset: 60, Piece: true})); err != nil {
		t.Fatalf("估算失败: %v", err)
	}

	for _, name := range []string{"piece.png", "piece_edges.png", "background.png", "background_edges.png", "match.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("诊断图片 %s 未生成: %v", name, err)
		}
	}
}

func TestOptions(t *testing.T) {
	o := ApplyOptions(WithPieceWidth(60), WithBackgroundStart(64))
	if o.PieceWidth != 60 || o.BackgroundStart != 64 {
		t.Errorf("选项未生效: %+v", o)
	}

	d := DefaultOptions()
	if d.PieceWidth != 59 || d.BackgroundStart != 61 {
		t.Errorf("默认区域错误: %+v", d)
	}
	if d.Scan.Start != 1.0 || d.Scan.Floor != 0.2 {
		t.Errorf("默认扫描参数错误: %+v", d.Scan)
	}

	est := NewEstimator(WithPieceWidth(70), WithBackgroundStart(61), WithLogger(quietLogger()))
	if _, err := est.Estimate(puzzletest.PNG(puzzletest.Options{Offset: 60, Piece: true})); err == nil {
		t.Error("背景起点小于拼图块宽度时应返回错误")
	}
}
