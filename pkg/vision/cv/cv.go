// Package cv 提供滑块拼图所需的图像处理
//
// 处理流程:
//   - EdgeMap: 高斯平滑 -> 灰度 -> Canny 边缘
//   - TrimToContent: 按边缘内容的外接矩形裁剪拼图块
//   - MatchScores: TM_CCOEFF_NORMED 模板匹配得分矩阵
//   - FindOffset: 得分矩阵 + 阈值扫描，返回第一个达标位置
//
// 基本用法:
//
//	piece := cv.EdgeMap(pieceMat, cv.DefaultEdgeOptions())
//	bg := cv.EdgeMap(bgMat, cv.DefaultEdgeOptions())
//	res, err := cv.FindOffset(bg, piece, match.DefaultScanOptions())
//	if errors.Is(err, match.ErrNoMatch) {
//	    // 回退到远程识别
//	}
//	fmt.Printf("偏移: %d\n", res.Result.X)
package cv
