package cv

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
)

// ReadImage 读取图像文件
func ReadImage(filename string) (gocv.Mat, error) {
	mat := gocv.IMRead(filename, gocv.IMReadColor)
	if mat.Empty() {
		return mat, fmt.Errorf("无法读取图像: %s", filename)
	}
	return mat, nil
}

// DecodeImage 解码内存中的图像 (PNG/JPEG)
func DecodeImage(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.NewMat(), fmt.Errorf("图像数据为空")
	}
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return mat, fmt.Errorf("解码图像失败: %w", err)
	}
	if mat.Empty() {
		return mat, fmt.Errorf("解码图像失败: 结果为空")
	}
	return mat, nil
}

// EncodePNG 编码为 PNG
func EncodePNG(img gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	defer buf.Close()

	// 拷贝一份，buf 关闭后底层内存会被释放
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// WriteImage 保存图像文件
func WriteImage(filename string, img gocv.Mat) error {
	// 确保目录存在
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	if ok := gocv.IMWrite(filename, img); !ok {
		return fmt.Errorf("保存图像失败: %s", filename)
	}
	return nil
}

// ToGray 转换为灰度图
func ToGray(src gocv.Mat) gocv.Mat {
	if src.Channels() == 1 {
		return src.Clone()
	}
	dst := gocv.NewMat()
	gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)
	return dst
}

// GetResolution 获取图像分辨率 (width, height)
func GetResolution(img gocv.Mat) (int, int) {
	return img.Cols(), img.Rows()
}

// CropImage 裁剪图像，越界部分被截掉
func CropImage(img gocv.Mat, rect image.Rectangle) gocv.Mat {
	rect = rect.Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))
	if rect.Empty() {
		return gocv.NewMat()
	}

	region := img.Region(rect)
	defer region.Close()
	return region.Clone()
}

// ImageToMat 将 image.Image 转换为 gocv.Mat
func ImageToMat(img image.Image) (gocv.Mat, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("图像转换失败: %w", err)
	}
	// 转换为 BGR（OpenCV 默认格式）
	dst := gocv.NewMat()
	gocv.CvtColor(mat, &dst, gocv.ColorRGBToBGR)
	mat.Close()
	return dst, nil
}

// LoadImageInput 加载图像输入
// 支持 string (文件路径)、[]byte (编码后的图像)、image.Image、gocv.Mat
func LoadImageInput(input interface{}) (gocv.Mat, error) {
	switch v := input.(type) {
	case string:
		return ReadImage(v)
	case []byte:
		return DecodeImage(v)
	case image.Image:
		return ImageToMat(v)
	case gocv.Mat:
		return v.Clone(), nil
	case *gocv.Mat:
		return v.Clone(), nil
	default:
		return gocv.Mat{}, fmt.Errorf("不支持的图像输入类型: %T", input)
	}
}
