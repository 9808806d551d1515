package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
)

// LocalPublisher はローカルディレクトリへ書き出します。
type LocalPublisher struct {
	dir string
}

// NewLocalPublisher は dir を書き出し先とする LocalPublisher を返します。
func NewLocalPublisher(dir string) *LocalPublisher {
	return &LocalPublisher{dir: dir}
}

// Publish は dir 配下の name に書き出し、書き出したファイルのパスを返します。
func (p *LocalPublisher) Publish(ctx context.Context, name string, img domain.ImageAsset) (string, error) {
	if err := validate(name, img); err != nil {
		return "", err
	}
	dst := filepath.Join(p.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	if err := os.WriteFile(dst, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	slog.InfoContext(ctx, "画像を書き出しました", "path", dst, "bytes", len(img.Data))
	return dst, nil
}
