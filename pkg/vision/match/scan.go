// Package match 提供匹配得分矩阵的阈值扫描
//
// 得分矩阵由 cv.MatchScores (TM_CCOEFF_NORMED) 生成，本包只依赖 ScoreGrid 接口，
// 不依赖 OpenCV。
package match

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoMatch 最低阈值下也没有任何位置达标
var ErrNoMatch = errors.New("未找到匹配位置")

// ScoreGrid 匹配得分矩阵
type ScoreGrid interface {
	Rows() int
	Cols() int
	At(row, col int) float32
}

// FloatGrid 基于切片的得分矩阵，按行存储
type FloatGrid [][]float32

func (g FloatGrid) Rows() int { return len(g) }

func (g FloatGrid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

func (g FloatGrid) At(row, col int) float32 { return g[row][col] }

// ScanOptions 阈值扫描参数
type ScanOptions struct {
	// Start 起始阈值
	Start float64
	// Step 每次下降的步长
	Step float64
	// Floor 最低阈值 (包含)
	Floor float64
}

// DefaultScanOptions 1.0 -> 0.2，步长 0.1
func DefaultScanOptions() ScanOptions {
	return ScanOptions{Start: 1.0, Step: 0.1, Floor: 0.2}
}

// Validate 校验扫描参数
func (o ScanOptions) Validate() error {
	if o.Step <= 0 {
		return fmt.Errorf("扫描步长必须大于 0: %v", o.Step)
	}
	if o.Floor > o.Start {
		return fmt.Errorf("最低阈值 %.2f 大于起始阈值 %.2f", o.Floor, o.Start)
	}
	return nil
}

// Thresholds 返回按扫描顺序排列的阈值，严格递减，最后一个不低于 Floor
func (o ScanOptions) Thresholds() []float64 {
	if o.Validate() != nil {
		return nil
	}
	n := int(math.Floor((o.Start-o.Floor)/o.Step+1e-9)) + 1
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		// 四舍五入消除 1.0-0.1*3 这类浮点误差
		th := math.Round((o.Start-float64(i)*o.Step)*1e6) / 1e6
		out = append(out, th)
	}
	return out
}

// ScanResult 扫描结果
type ScanResult struct {
	// X 匹配位置的列 (横向偏移)
	X int
	// Y 匹配位置的行
	Y int
	// Threshold 命中时的阈值
	Threshold float64
	// Score 该位置的得分
	Score float32
}

// Scan 从高到低逐级尝试阈值，取第一个有位置达标的阈值；
// 同一阈值下按行优先顺序取第一个达标位置，不一定是得分最高的位置。
func Scan(grid ScoreGrid, opts ScanOptions) (*ScanResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	rows, cols := grid.Rows(), grid.Cols()
	if rows == 0 || cols == 0 {
		return nil, ErrNoMatch
	}

	for _, th := range opts.Thresholds() {
		// 得分是 float32，阈值也收窄到 float32 再比较，否则 0.9 的得分会错过 0.9 阈值
		limit := float32(th)
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				score := grid.At(y, x)
				if score >= limit {
					return &ScanResult{X: x, Y: y, Threshold: th, Score: score}, nil
				}
			}
		}
	}
	return nil, ErrNoMatch
}
