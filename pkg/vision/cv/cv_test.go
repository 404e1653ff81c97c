package cv

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cmcbot/pkg/puzzle/puzzletest"
	"github.com/zoeyai/cmcbot/pkg/vision/match"
)

// loadSynthetic 生成截图并转为 Mat
func loadSynthetic(t *testing.T, opts puzzletest.Options) gocv.Mat {
	t.Helper()
	mat, err := LoadImageInput(puzzletest.PNG(opts))
	if err != nil {
		t.Skipf("跳过测试：OpenCV 不可用: %v", err)
	}
	return mat
}

func TestEdgeMap(t *testing.T) {
	src := loadSynthetic(t, puzzletest.Options{Offset: -1, Piece: true})
	defer src.Close()

	edges := EdgeMap(src, DefaultEdgeOptions())
	defer edges.Close()

	if edges.Channels() != 1 {
		t.Errorf("边缘图应为单通道, got %d", edges.Channels())
	}
	if edges.Cols() != src.Cols() || edges.Rows() != src.Rows() {
		t.Errorf("边缘图尺寸错误: %dx%d", edges.Cols(), edges.Rows())
	}
	if gocv.CountNonZero(edges) == 0 {
		t.Error("拼图块应产生边缘")
	}
}

func TestContentBounds(t *testing.T) {
	src := loadSynthetic(t, puzzletest.Options{Offset: -1, Piece: true})
	defer src.Close()

	edges := EdgeMap(src, DefaultEdgeOptions())
	defer edges.Close()

	bounds, ok := ContentBounds(edges)
	if !ok {
		t.Fatal("应找到边缘内容")
	}
	t.Logf("边缘外接矩形: %v", bounds)

	// 边缘紧贴拼图块轮廓，允许 1px 误差
	if d := bounds.Min.X - puzzletest.PieceLeft; d < -1 || d > 1 {
		t.Errorf("左边界错误: got %d, want %d±1", bounds.Min.X, puzzletest.PieceLeft)
	}
	if bounds.Max.X > 59 {
		t.Errorf("拼图块不应越过左侧区域: %v", bounds)
	}
}

func TestContentBoundsEmpty(t *testing.T) {
	blank := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 20, 30, gocv.MatTypeCV8UC1)
	defer blank.Close()

	if _, ok := ContentBounds(blank); ok {
		t.Error("全黑图像不应有内容")
	}
	if _, _, err := TrimToContent(blank); err == nil {
		t.Error("全黑图像裁剪应失败")
	}
}

func TestContentBoundsSinglePixel(t *testing.T) {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 20, 30, gocv.MatTypeCV8UC1)
	defer m.Close()
	m.SetUCharAt(7, 12, 255)

	bounds, ok := ContentBounds(m)
	if !ok {
		t.Fatal("单个非零像素应有内容")
	}
	if want := image.Rect(12, 7, 13, 8); bounds != want {
		t.Errorf("外接矩形错误: got %v, want %v", bounds, want)
	}
}

func TestTrimToContent(t *testing.T) {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 50, 60, gocv.MatTypeCV8UC1)
	defer m.Close()
	m.SetUCharAt(10, 20, 255)
	m.SetUCharAt(30, 45, 255)

	trimmed, rect, err := TrimToContent(m)
	if err != nil {
		t.Fatalf("裁剪失败: %v", err)
	}
	defer trimmed.Close()

	want := image.Rect(20, 10, 46, 31)
	if rect != want {
		t.Errorf("外接矩形错误: got %v, want %v", rect, want)
	}
	if trimmed.Cols() != want.Dx() || trimmed.Rows() != want.Dy() {
		t.Errorf("裁剪尺寸错误: %dx%d", trimmed.Cols(), trimmed.Rows())
	}
}

func TestCropImageClamps(t *testing.T) {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 40, 40, gocv.MatTypeCV8UC3)
	defer m.Close()

	c := CropImage(m, image.Rect(30, -5, 80, 20))
	defer c.Close()
	if w, h := GetResolution(c); w != 10 || h != 20 {
		t.Errorf("越界裁剪尺寸错误: %dx%d", w, h)
	}

	empty := CropImage(m, image.Rect(50, 50, 60, 60))
	defer empty.Close()
	if !empty.Empty() {
		t.Error("完全越界应返回空 Mat")
	}
}

func TestFindOffset(t *testing.T) {
	src := loadSynthetic(t, puzzletest.Options{Offset: 100, Piece: true, Decoy: true})
	defer src.Close()

	edges := EdgeMap(src, DefaultEdgeOptions())
	defer edges.Close()

	piece := CropImage(edges, image.Rect(0, 0, 59, edges.Rows()))
	defer piece.Close()
	tmpl, _, err := TrimToContent(piece)
	if err != nil {
		t.Fatalf("裁剪拼图块失败: %v", err)
	}
	defer tmpl.Close()

	bg := CropImage(edges, image.Rect(puzzletest.BackgroundStart, 0, edges.Cols(), edges.Rows()))
	defer bg.Close()

	res, err := FindOffset(bg, tmpl, match.DefaultScanOptions())
	if err != nil {
		t.Fatalf("FindOffset 失败: %v", err)
	}
	t.Logf("匹配: x=%d y=%d score=%.3f threshold=%.1f", res.Result.X, res.Result.Y, res.Confidence, res.Threshold)

	if d := res.Result.X - 100; d < -1 || d > 1 {
		t.Errorf("偏移错误: got %d, want 100±1", res.Result.X)
	}
	if res.Rectangle.TopRight.X-res.Rectangle.TopLeft.X != tmpl.Cols() {
		t.Errorf("匹配区域宽度错误: %+v", res.Rectangle)
	}
}

func TestFindOffsetNoMatch(t *testing.T) {
	src := loadSynthetic(t, puzzletest.Options{Offset: -1, Piece: true})
	defer src.Close()

	edges := EdgeMap(src, DefaultEdgeOptions())
	defer edges.Close()

	piece := CropImage(edges, image.Rect(0, 0, 59, edges.Rows()))
	defer piece.Close()
	tmpl, _, err := TrimToContent(piece)
	if err != nil {
		t.Fatalf("裁剪拼图块失败: %v", err)
	}
	defer tmpl.Close()

	bg := CropImage(edges, image.Rect(puzzletest.BackgroundStart, 0, edges.Cols(), edges.Rows()))
	defer bg.Close()

	if _, err := FindOffset(bg, tmpl, match.DefaultScanOptions()); !errors.Is(err, match.ErrNoMatch) {
		t.Errorf("空白背景应返回 ErrNoMatch, got %v", err)
	}
}

func TestMatchScoresSizeError(t *testing.T) {
	small := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 10, 10, gocv.MatTypeCV8UC1)
	defer small.Close()
	big := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 20, 20, gocv.MatTypeCV8UC1)
	defer big.Close()

	_, err := MatchScores(small, big)
	var sizeErr *ImageSizeError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("应返回 ImageSizeError, got %v", err)
	}
	if sizeErr.SourceSize != [2]int{10, 10} || sizeErr.SearchSize != [2]int{20, 20} {
		t.Errorf("尺寸信息错误: %+v", sizeErr)
	}
}

func TestEncodeDecodeWrite(t *testing.T) {
	src := loadSynthetic(t, puzzletest.Options{Offset: 50, Piece: true})
	defer src.Close()

	data, err := EncodePNG(src)
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}
	back, err := DecodeImage(data)
	if err != nil {
		t.Fatalf("解码失败: %v", err)
	}
	defer back.Close()
	if back.Cols() != puzzletest.Width || back.Rows() != puzzletest.Height {
		t.Errorf("解码尺寸错误: %dx%d", back.Cols(), back.Rows())
	}

	path := filepath.Join(t.TempDir(), "sub", "edges.png")
	if err := WriteImage(path, back); err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	read, err := ReadImage(path)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	read.Close()

	if _, err := DecodeImage(nil); err == nil {
		t.Error("空数据应返回错误")
	}
}
