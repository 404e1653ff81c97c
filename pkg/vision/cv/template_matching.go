package cv

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/zoeyai/cmcbot/pkg/vision/match"
)

// MatScoreGrid 把 MatchTemplate 的结果矩阵 (CV_32F) 适配为 match.ScoreGrid
type MatScoreGrid struct {
	gocv.Mat
}

// At 返回 (row, col) 处的得分
func (g MatScoreGrid) At(row, col int) float32 {
	return g.GetFloatAt(row, col)
}

// MatchScores 计算 TM_CCOEFF_NORMED 得分矩阵，调用方负责 Close
func MatchScores(source, template gocv.Mat) (gocv.Mat, error) {
	if err := checkSourceLargerThanSearch(source, template); err != nil {
		return gocv.NewMat(), err
	}

	mask := gocv.NewMat()
	defer mask.Close()

	result := gocv.NewMat()
	gocv.MatchTemplate(source, template, &result, gocv.TmCcoeffNormed, mask)
	if result.Empty() {
		result.Close()
		return gocv.NewMat(), fmt.Errorf("模板匹配失败: 结果矩阵为空")
	}
	return result, nil
}

// FindOffset 在 source 中查找 template，按阈值扫描返回第一个达标位置
func FindOffset(source, template gocv.Mat, opts match.ScanOptions) (*MatchResult, error) {
	startTime := time.Now()

	result, err := MatchScores(source, template)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	hit, err := match.Scan(&MatScoreGrid{result}, opts)
	if err != nil {
		return nil, err
	}

	w, h := template.Cols(), template.Rows()
	return &MatchResult{
		Result:     Point{X: hit.X, Y: hit.Y},
		Rectangle:  getTargetRectangle(hit.X, hit.Y, w, h),
		Confidence: float64(hit.Score),
		Threshold:  hit.Threshold,
		Time:       float64(time.Since(startTime).Milliseconds()),
	}, nil
}

// getTargetRectangle 计算目标区域
func getTargetRectangle(xMin, yMin, w, h int) Rectangle {
	// 四个角点: 左上 -> 左下 -> 右下 -> 右上
	return Rectangle{
		TopLeft:     Point{X: xMin, Y: yMin},
		BottomLeft:  Point{X: xMin, Y: yMin + h},
		BottomRight: Point{X: xMin + w, Y: yMin + h},
		TopRight:    Point{X: xMin + w, Y: yMin},
	}
}

// checkSourceLargerThanSearch 检查源图像是否大于搜索图像
func checkSourceLargerThanSearch(source, search gocv.Mat) error {
	if source.Empty() || search.Empty() {
		return fmt.Errorf("匹配图像为空")
	}
	if source.Rows() < search.Rows() || source.Cols() < search.Cols() {
		return &ImageSizeError{
			SourceSize: [2]int{source.Cols(), source.Rows()},
			SearchSize: [2]int{search.Cols(), search.Rows()},
		}
	}
	return nil
}

// ImageSizeError 图像尺寸错误
type ImageSizeError struct {
	SourceSize [2]int
	SearchSize [2]int
}

func (e *ImageSizeError) Error() string {
	return fmt.Sprintf("搜索图像尺寸大于源图像: 源 %dx%d, 模板 %dx%d",
		e.SourceSize[0], e.SourceSize[1], e.SearchSize[0], e.SearchSize[1])
}
