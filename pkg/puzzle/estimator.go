package puzzle

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cmcbot/internal/logger"
	"github.com/zoeyai/cmcbot/pkg/vision/cv"
	"github.com/zoeyai/cmcbot/pkg/vision/match"
)

var (
	// ErrNoMatch 背景中找不到拼图块，调用方应回退到远程识别
	ErrNoMatch = match.ErrNoMatch
	// ErrEmptyPiece 拼图块区域没有任何边缘
	ErrEmptyPiece = errors.New("拼图块区域为空")
)

// Estimate 估算结果
type Estimate struct {
	// Offset 滑块需要向右拖动的像素数
	Offset int
	// Row 匹配位置所在行
	Row int
	// Threshold 命中时的扫描阈值
	Threshold float64
	// Score 匹配得分
	Score float64
	// PieceRect 拼图块在截图中的外接矩形
	PieceRect image.Rectangle
	// Elapsed 耗时
	Elapsed time.Duration
}

// Estimator 偏移估算器
type Estimator struct {
	opts *Options
	log  *logger.Logger
}

// NewEstimator 创建估算器
func NewEstimator(opts ...Option) *Estimator {
	o := ApplyOptions(opts...)
	l := o.Logger
	if l == nil {
		l = logger.Default()
	}
	return &Estimator{opts: o, log: l.WithPrefix("[puzzle]")}
}

// Options 返回当前配置
func (e *Estimator) Options() Options {
	return *e.opts
}

// Estimate 从编码后的截图 (PNG/JPEG) 估算偏移
func (e *Estimator) Estimate(screenshot []byte) (*Estimate, error) {
	src, err := cv.DecodeImage(screenshot)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return e.EstimateMat(src)
}

// EstimateImage 从 image.Image 估算偏移
func (e *Estimator) EstimateImage(img image.Image) (*Estimate, error) {
	src, err := cv.ImageToMat(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return e.EstimateMat(src)
}

// EstimateMat 估算偏移
//
// 拼图块取 [0, PieceWidth)，按边缘内容裁到外接矩形；背景取 [BackgroundStart, width)。
// 两者都做 平滑 -> 灰度 -> Canny，再用 TM_CCOEFF_NORMED 匹配并按阈值扫描。
func (e *Estimator) EstimateMat(src gocv.Mat) (*Estimate, error) {
	start := time.Now()
	o := e.opts

	w, h := cv.GetResolution(src)
	if o.PieceWidth <= 0 || o.BackgroundStart < o.PieceWidth {
		return nil, fmt.Errorf("区域参数错误: piece=%d background=%d", o.PieceWidth, o.BackgroundStart)
	}
	if w <= o.BackgroundStart || h == 0 {
		return nil, fmt.Errorf("截图尺寸过小: %dx%d, 宽度至少 %d", w, h, o.BackgroundStart+1)
	}

	pieceSrc := cv.CropImage(src, image.Rect(0, 0, o.PieceWidth, h))
	defer pieceSrc.Close()
	bgSrc := cv.CropImage(src, image.Rect(o.BackgroundStart, 0, w, h))
	defer bgSrc.Close()

	pieceEdges := cv.EdgeMap(pieceSrc, o.Edge)
	defer pieceEdges.Close()
	bgEdges := cv.EdgeMap(bgSrc, o.Edge)
	defer bgEdges.Close()

	template, pieceRect, err := cv.TrimToContent(pieceEdges)
	if err != nil {
		e.log.LogEvent("match", false, msSince(start), "拼图块无边缘")
		return nil, fmt.Errorf("%w: %v", ErrEmptyPiece, err)
	}
	defer template.Close()

	e.saveDiagnostics(map[string]gocv.Mat{
		"piece.png":            pieceSrc,
		"piece_edges.png":      template,
		"background.png":       bgSrc,
		"background_edges.png": bgEdges,
	})

	res, err := cv.FindOffset(bgEdges, template, o.Scan)
	if err != nil {
		e.log.LogEvent("match", false, msSince(start), err.Error())
		return nil, err
	}

	est := &Estimate{
		Offset:    res.Result.X,
		Row:       res.Result.Y,
		Threshold: res.Threshold,
		Score:     res.Confidence,
		PieceRect: pieceRect,
		Elapsed:   time.Since(start),
	}
	e.log.LogEvent("match", true, msSince(start),
		fmt.Sprintf("offset=%d row=%d threshold=%.1f score=%.3f", est.Offset, est.Row, est.Threshold, est.Score))

	if o.DiagnosticsDir != "" {
		marked := bgSrc.Clone()
		gocv.Rectangle(&marked,
			image.Rect(res.Rectangle.TopLeft.X, res.Rectangle.TopLeft.Y, res.Rectangle.BottomRight.X, res.Rectangle.BottomRight.Y),
			color.RGBA{255, 0, 0, 255}, 2)
		e.saveDiagnostics(map[string]gocv.Mat{"match.png": marked})
		marked.Close()
	}
	return est, nil
}

// saveDiagnostics 保存诊断图片，失败只记录日志
func (e *Estimator) saveDiagnostics(images map[string]gocv.Mat) {
	if e.opts.DiagnosticsDir == "" {
		return
	}
	for name, img := range images {
		path := filepath.Join(e.opts.DiagnosticsDir, name)
		if err := cv.WriteImage(path, img); err != nil {
			e.log.Warn("保存诊断图片失败: %v", err)
		}
	}
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
