package remote

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	// OverlayText 画在背景图上的提示文字
	OverlayText = "CLICK ON TOP RIGHT PUZZLE\nCORNER"
	// Instruction textinstructions 字段
	Instruction = "Click-on-top-right-puzzle-corner"
	// MaxPayloadSize 图片大小上限 (100 KiB)
	MaxPayloadSize = 100 * 1024

	fontSize    = 15
	lineSpacing = 2
)

// 同一段文字在 x=10, 10.5, 11 各画一次，模拟粗体
var overlayPasses = []float64{10, 10.5, 11}

var (
	faceOnce sync.Once
	faceErr  error
	fontFace font.Face
)

func overlayFace() (font.Face, error) {
	faceOnce.Do(func() {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			faceErr = fmt.Errorf("加载字体失败: %w", err)
			return
		}
		fontFace = truetype.NewFace(f, &truetype.Options{Size: fontSize, Hinting: font.HintingFull})
	})
	return fontFace, faceErr
}

// ComposeChallenge 在背景图上画白色提示文字，返回 PNG
func ComposeChallenge(bg image.Image, text string) ([]byte, error) {
	if bg == nil || bg.Bounds().Empty() {
		return nil, fmt.Errorf("背景图为空")
	}
	face, err := overlayFace()
	if err != nil {
		return nil, err
	}

	dc := gg.NewContextForImage(bg)
	dc.SetFontFace(face)
	dc.SetRGB(1, 1, 1)

	lines := strings.Split(text, "\n")
	widest := 0.0
	for _, line := range lines {
		if w, _ := dc.MeasureString(line); w > widest {
			widest = w
		}
	}

	// 多行居中，y 是基线
	lineHeight := dc.FontHeight() + lineSpacing
	for _, x := range overlayPasses {
		for i, line := range lines {
			w, _ := dc.MeasureString(line)
			dc.DrawString(line, x+(widest-w)/2, dc.FontHeight()+float64(i)*lineHeight)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("PNG 编码失败: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64 编码为 body 字段使用的纯 Base64，不带 data: 前缀
func EncodeBase64(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("图像为空")
	}
	if len(data) > MaxPayloadSize {
		return "", fmt.Errorf("%w: %d 字节, 上限 %d", ErrTooBig, len(data), MaxPayloadSize)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
