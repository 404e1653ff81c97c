package cv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// EdgeMap 高斯平滑 -> 灰度 -> Canny，返回单通道边缘图
func EdgeMap(src gocv.Mat, opts EdgeOptions) gocv.Mat {
	k := opts.BlurKernel
	if k <= 0 {
		k = 3
	}
	if k%2 == 0 {
		k++
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(src, &blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault)

	gray := ToGray(blurred)
	defer gray.Close()

	edges := gocv.NewMat()
	gocv.Canny(gray, &edges, opts.LowThreshold, opts.HighThreshold)
	return edges
}

// ContentBounds 非零像素的外接矩形，图像全为 0 时返回 false
func ContentBounds(mat gocv.Mat) (image.Rectangle, bool) {
	gray := ToGray(mat)
	defer gray.Close()

	if gray.Empty() || gocv.CountNonZero(gray) == 0 {
		return image.Rectangle{}, false
	}

	points := gocv.NewMat()
	defer points.Close()
	gocv.FindNonZero(gray, &points)

	pv := gocv.NewPointVectorFromMat(points)
	defer pv.Close()
	return gocv.BoundingRect(pv), true
}

// TrimToContent 裁剪到非零内容的外接矩形
func TrimToContent(mat gocv.Mat) (gocv.Mat, image.Rectangle, error) {
	bounds, ok := ContentBounds(mat)
	if !ok {
		return gocv.NewMat(), image.Rectangle{}, fmt.Errorf("图像没有可裁剪的内容 (%dx%d)", mat.Cols(), mat.Rows())
	}
	return CropImage(mat, bounds), bounds, nil
}
