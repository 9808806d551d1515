package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
)

// 指定サイズ・単色の画像を指定形式でエンコードするヘルパー
func createSolidImageData(t *testing.T, format string, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}

	buf := new(bytes.Buffer)
	switch format {
	case "png":
		require.NoError(t, png.Encode(buf, img))
	case "jpeg":
		require.NoError(t, jpeg.Encode(buf, img, nil))
	case "gif":
		require.NoError(t, gif.Encode(buf, img, nil))
	default:
		t.Fatalf("unsupported format: %s", format)
	}
	return buf.Bytes()
}

func TestCompressToJPEG(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}

	for _, format := range []string{"png", "jpeg", "gif"} {
		t.Run(format+" を JPEG に変換できること", func(t *testing.T) {
			got, err := CompressToJPEG(createSolidImageData(t, format, 24, 12, red), OutputQuality)
			require.NoError(t, err)

			cfg, decoded, err := image.DecodeConfig(bytes.NewReader(got))
			require.NoError(t, err)
			assert.Equal(t, "jpeg", decoded)
			assert.Equal(t, 24, cfg.Width, "寸法は変わらない")
			assert.Equal(t, 12, cfg.Height)
		})
	}

	t.Run("デコードできない入力は ErrDecode", func(t *testing.T) {
		_, err := CompressToJPEG([]byte("this is not an image"), OutputQuality)
		assert.ErrorIs(t, err, domain.ErrDecode)

		_, err = CompressToJPEG(nil, OutputQuality)
		assert.ErrorIs(t, err, domain.ErrDecode)
	})

	t.Run("品質が低いほど小さくなること", func(t *testing.T) {
		noisy := image.NewRGBA(image.Rect(0, 0, 64, 64))
		for x := 0; x < 64; x++ {
			for y := 0; y < 64; y++ {
				noisy.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), uint8((x * y) % 256), 255})
			}
		}
		buf := new(bytes.Buffer)
		require.NoError(t, png.Encode(buf, noisy))

		high, err := CompressToJPEG(buf.Bytes(), 100)
		require.NoError(t, err)
		low, err := CompressToJPEG(buf.Bytes(), 10)
		require.NoError(t, err)
		assert.Less(t, len(low), len(high))
	})
}
