package cv

// Point 表示二维坐标点
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rectangle 表示矩形区域（四个角点）
type Rectangle struct {
	TopLeft     Point `json:"top_left"`
	BottomLeft  Point `json:"bottom_left"`
	BottomRight Point `json:"bottom_right"`
	TopRight    Point `json:"top_right"`
}

// MatchResult 模板匹配结果
type MatchResult struct {
	// Result 匹配区域左上角坐标，X 即滑块偏移
	Result Point `json:"result"`
	// Rectangle 匹配区域的四个角点
	Rectangle Rectangle `json:"rectangle"`
	// Confidence 该位置的匹配得分 (TM_CCOEFF_NORMED)
	Confidence float64 `json:"confidence"`
	// Threshold 命中时的扫描阈值
	Threshold float64 `json:"threshold"`
	// Time 匹配耗时（毫秒）
	Time float64 `json:"time,omitempty"`
}

// EdgeOptions 边缘提取参数
type EdgeOptions struct {
	// BlurKernel 高斯核边长 (奇数)
	BlurKernel int
	// LowThreshold Canny 低阈值
	LowThreshold float32
	// HighThreshold Canny 高阈值
	HighThreshold float32
}

// DefaultEdgeOptions 3x3 高斯核，Canny 250/250
func DefaultEdgeOptions() EdgeOptions {
	return EdgeOptions{
		BlurKernel:    3,
		LowThreshold:  250,
		HighThreshold: 250,
	}
}
