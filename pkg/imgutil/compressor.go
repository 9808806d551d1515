package imgutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/shouni/gemini-facade-studio/pkg/domain"

	_ "golang.org/x/image/webp"
)

const (
	// OutputQuality は正規化・復元で出力する JPEG の品質です。システム全体で固定します。
	OutputQuality = 92
	// ThumbnailQuality はサムネイル用の JPEG 品質です。
	ThumbnailQuality = 75
	// MimeJPEG は本パッケージが出力する MIME タイプです。
	MimeJPEG = "image/jpeg"
)

// CompressToJPEG は画像データ（PNG, GIF, JPEG, WebP）をJPEG形式に圧縮します。
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	out, err := encodeJPEG(img, quality)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

func decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", domain.ErrDecode)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return img, nil
}

func encodeJPEG(img image.Image, quality int) (domain.ImageAsset, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return domain.ImageAsset{}, fmt.Errorf("%w: %v", domain.ErrRender, err)
	}
	return domain.ImageAsset{MimeType: MimeJPEG, Data: buf.Bytes()}, nil
}
