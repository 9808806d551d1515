package imgutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/shouni/gemini-facade-studio/pkg/domain"

	xdraw "golang.org/x/image/draw"
)

const (
	// TargetSize は生成モデルに渡す正方形キャンバスの一辺です。
	TargetSize = 1024
	// maxCanvasEdge を超えるキャンバスは確保しません。
	maxCanvasEdge = 8192
)

// PaddingColor はレターボックスの余白色です。
var PaddingColor = color.RGBA{A: 0xff}

// ContentRect は width x height の画像を size x size のキャンバスへ
// アスペクト比を保って拡縮・中央配置したときの描画矩形を返します。
// Normalize と Restore は必ずこの関数で同じ矩形を求めます。
func ContentRect(width, height, size int) image.Rectangle {
	if width <= 0 || height <= 0 || size <= 0 {
		return image.Rectangle{}
	}
	aspect := float64(width) / float64(height)

	w, h := size, size
	if aspect > 1 {
		h = max(1, int(math.Round(float64(size)/aspect)))
	} else {
		w = max(1, int(math.Round(float64(size)*aspect)))
	}

	x := (size - w) / 2
	y := (size - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

// Normalize は任意のアスペクト比の画像を size x size の黒い正方形キャンバスに
// レターボックスして、固定品質の JPEG として返します。
func Normalize(data []byte, size int) (domain.ImageAsset, error) {
	src, err := decode(data)
	if err != nil {
		return domain.ImageAsset{}, err
	}
	canvas, err := newCanvas(size, size)
	if err != nil {
		return domain.ImageAsset{}, err
	}

	b := src.Bounds()
	rect := ContentRect(b.Dx(), b.Dy(), size)
	if rect.Empty() {
		return domain.ImageAsset{}, fmt.Errorf("%w: empty source image", domain.ErrDecode)
	}

	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(PaddingColor), image.Point{}, draw.Src)
	xdraw.CatmullRom.Scale(canvas, rect, src, b, xdraw.Over, nil)

	return encodeJPEG(canvas, OutputQuality)
}

// Restore は Normalize の逆変換です。元画像の寸法から同じ中央矩形を求めて切り出し、
// originalWidth x originalHeight に戻して余白を取り除きます。
// 正方形画像の実寸が size と異なる場合は、その比率で矩形を換算します。
func Restore(data []byte, originalWidth, originalHeight, size int) (domain.ImageAsset, error) {
	src, err := decode(data)
	if err != nil {
		return domain.ImageAsset{}, err
	}
	if originalWidth <= 0 || originalHeight <= 0 {
		return domain.ImageAsset{}, fmt.Errorf("%w: invalid original dimensions %dx%d", domain.ErrRender, originalWidth, originalHeight)
	}

	rect := ContentRect(originalWidth, originalHeight, size)
	b := src.Bounds()
	if b.Dx() != size || b.Dy() != size {
		fx := float64(b.Dx()) / float64(size)
		fy := float64(b.Dy()) / float64(size)
		rect = image.Rect(
			int(math.Round(float64(rect.Min.X)*fx)),
			int(math.Round(float64(rect.Min.Y)*fy)),
			int(math.Round(float64(rect.Max.X)*fx)),
			int(math.Round(float64(rect.Max.Y)*fy)),
		)
	}
	rect = rect.Add(b.Min).Intersect(b)
	if rect.Empty() {
		return domain.ImageAsset{}, fmt.Errorf("%w: crop rectangle is empty", domain.ErrDecode)
	}

	dst, err := newCanvas(originalWidth, originalHeight)
	if err != nil {
		return domain.ImageAsset{}, err
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, rect, xdraw.Src, nil)

	return encodeJPEG(dst, OutputQuality)
}

// ReadDimensions は画像全体をデコードせずに幅と高さを取得します。
func ReadDimensions(data []byte) (domain.Dimensions, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.Dimensions{}, fmt.Errorf("%w: %v", domain.ErrDimensionRead, err)
	}
	d := domain.Dimensions{Width: cfg.Width, Height: cfg.Height}
	if !d.Valid() {
		return domain.Dimensions{}, fmt.Errorf("%w: %dx%d", domain.ErrDimensionRead, cfg.Width, cfg.Height)
	}
	return d, nil
}

// Thumbnail は長辺が maxEdge に収まるよう縮小した JPEG を返します。
func Thumbnail(data []byte, maxEdge int) (domain.ImageAsset, error) {
	src, err := decode(data)
	if err != nil {
		return domain.ImageAsset{}, err
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxEdge || h > maxEdge {
		if w >= h {
			h = max(1, h*maxEdge/w)
			w = maxEdge
		} else {
			w = max(1, w*maxEdge/h)
			h = maxEdge
		}
	}
	dst, err := newCanvas(w, h)
	if err != nil {
		return domain.ImageAsset{}, err
	}
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return encodeJPEG(dst, ThumbnailQuality)
}

func newCanvas(width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 || width > maxCanvasEdge || height > maxCanvasEdge {
		return nil, fmt.Errorf("%w: cannot allocate %dx%d surface", domain.ErrRender, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height)), nil
}
