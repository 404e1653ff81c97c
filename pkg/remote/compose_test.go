package remote

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestComposeChallenge(t *testing.T) {
	bg := solidImage(240, 192, color.RGBA{0, 0, 0, 255})

	data, err := ComposeChallenge(bg, OverlayText)
	if err != nil {
		t.Fatalf("ComposeChallenge 失败: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("结果不是 PNG: %v", err)
	}
	if img.Bounds().Dx() != 240 || img.Bounds().Dy() != 192 {
		t.Errorf("尺寸不应改变: %v", img.Bounds())
	}

	// 文字在顶部两行内，应有白色像素；底部保持原样
	var top, bottom int
	for y := 0; y < 192; y++ {
		for x := 0; x < 240; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r>>8 > 200 && g>>8 > 200 && b>>8 > 200 {
				if y < 45 {
					top++
				} else {
					bottom++
				}
			}
		}
	}
	t.Logf("白色像素: top=%d bottom=%d", top, bottom)
	if top == 0 {
		t.Error("顶部应画有白色文字")
	}
	if bottom != 0 {
		t.Errorf("文字不应超出前两行: %d", bottom)
	}
}

func TestComposeChallengeEmpty(t *testing.T) {
	if _, err := ComposeChallenge(nil, OverlayText); err == nil {
		t.Error("空背景应返回错误")
	}
	if _, err := ComposeChallenge(image.NewRGBA(image.Rect(0, 0, 0, 0)), OverlayText); err == nil {
		t.Error("零尺寸背景应返回错误")
	}
}

func TestEncodeBase64(t *testing.T) {
	got, err := EncodeBase64([]byte("hello"))
	if err != nil {
		t.Fatalf("编码失败: %v", err)
	}
	if got != base64.StdEncoding.EncodeToString([]byte("hello")) {
		t.Errorf("编码错误: %q", got)
	}

	if _, err := EncodeBase64(nil); err == nil {
		t.Error("空数据应返回错误")
	}

	big := make([]byte, MaxPayloadSize+1)
	if _, err := EncodeBase64(big); !errors.Is(err, ErrTooBig) {
		t.Errorf("超出上限应返回 ErrTooBig, got %v", err)
	}
	if _, err := EncodeBase64(big[:MaxPayloadSize]); err != nil {
		t.Errorf("恰好等于上限应允许: %v", err)
	}
}
