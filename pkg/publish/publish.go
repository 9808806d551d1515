// Package publish は作業画像をセッションの外へ書き出します。
package publish

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
	"github.com/shouni/gemini-facade-studio/pkg/imgutil"
)

// Publisher は画像を書き出し、書き出し先の場所を返します。
type Publisher interface {
	Publish(ctx context.Context, name string, img domain.ImageAsset) (string, error)
}

// ObjectName はセッション ID と時刻から書き出し先の名前を組み立てます。
// 例: sessions/<id>/20240501-100000.jpg
func ObjectName(sessionID string, at time.Time, mimeType string) string {
	return path.Join("sessions", sanitize(sessionID), at.UTC().Format("20060102-150405")+extension(mimeType))
}

// AsJPEG は書き出し用に画像を JPEG に揃えます。すでに JPEG の場合はそのまま返します。
func AsJPEG(img domain.ImageAsset) (domain.ImageAsset, error) {
	if img.MimeType == imgutil.MimeJPEG {
		return img, nil
	}
	data, err := imgutil.CompressToJPEG(img.Data, imgutil.OutputQuality)
	if err != nil {
		return domain.ImageAsset{}, err
	}
	return domain.ImageAsset{MimeType: imgutil.MimeJPEG, Data: data}, nil
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg", "":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
	if s == "" {
		return "unnamed"
	}
	return s
}

func validate(name string, img domain.ImageAsset) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("publish: object name is empty")
	}
	if img.IsZero() {
		return fmt.Errorf("publish: %w: image is empty", domain.ErrRender)
	}
	return nil
}
