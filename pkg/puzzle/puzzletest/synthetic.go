// Package puzzletest 生成测试用的滑块验证码截图
//
// 截图布局与真实验证码一致: 左侧 [0, 59) 是拼图块，右侧背景中在
// BackgroundStart+offset 处有一个同形状的缺口。
package puzzletest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

const (
	// Width 截图宽度
	Width = 300
	// Height 截图高度
	Height = 192
	// BackgroundStart 背景区域起点
	BackgroundStart = 61
	// PieceLeft 拼图块在左侧区域内的横坐标
	PieceLeft = 4
	// PieceTop 拼图块纵坐标
	PieceTop = 70
	// ShapeWidth 拼图块外形宽度 (含右侧凸起)
	ShapeWidth = 44
)

var (
	white = color.RGBA{255, 255, 255, 255}
	black = color.RGBA{0, 0, 0, 255}
)

// Options 截图生成参数
type Options struct {
	// Offset 缺口相对背景起点的偏移，< 0 表示不画缺口
	Offset int
	// Piece 是否画左侧拼图块
	Piece bool
	// Decoy 是否在背景中画一个干扰矩形
	Decoy bool
}

// Screenshot 生成截图
func Screenshot(opts Options) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	fill(img, img.Bounds(), black)

	if opts.Piece {
		drawShape(img, PieceLeft, PieceTop)
	}
	if opts.Offset >= 0 {
		drawShape(img, BackgroundStart+opts.Offset, PieceTop)
	}
	if opts.Decoy {
		x := BackgroundStart + 10
		if opts.Offset >= 0 && opts.Offset < 120 {
			x = Width - 40
		}
		fill(img, image.Rect(x, 12, x+30, 36), white)
	}
	return img
}

// PNG 生成截图并编码为 PNG
func PNG(opts Options) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Screenshot(opts)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// drawShape 36x36 主体 + 右侧半径 7 的凸起 + 顶部半径 6 的凹口
func drawShape(img *image.RGBA, x0, y0 int) {
	fill(img, image.Rect(x0, y0, x0+36, y0+36), white)
	disc(img, x0+36, y0+18, 7, white)
	disc(img, x0+18, y0, 6, black)
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func disc(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			p := image.Pt(cx+dx, cy+dy)
			if p.In(img.Bounds()) {
				img.SetRGBA(p.X, p.Y, c)
			}
		}
	}
}
