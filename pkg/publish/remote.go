package publish

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
)

// RemotePublisher は gs:// または s3:// のプレフィックス配下へ書き出します。
type RemotePublisher struct {
	writer remoteio.OutputWriter
	base   string
}

// NewRemotePublisher は baseURI 配下に書き出す RemotePublisher を返します。
func NewRemotePublisher(writer remoteio.OutputWriter, baseURI string) (*RemotePublisher, error) {
	if writer == nil {
		return nil, fmt.Errorf("writer is required")
	}
	if !remoteio.IsRemoteURI(baseURI) {
		return nil, fmt.Errorf("export uri must start with gs:// or s3://: %q", baseURI)
	}
	return &RemotePublisher{writer: writer, base: strings.TrimRight(baseURI, "/")}, nil
}

// Publish は画像を書き出し、書き出し先の URI を返します。
func (p *RemotePublisher) Publish(ctx context.Context, name string, img domain.ImageAsset) (string, error) {
	if err := validate(name, img); err != nil {
		return "", err
	}
	uri := p.base + "/" + strings.TrimLeft(name, "/")
	if err := p.writer.Write(ctx, uri, bytes.NewReader(img.Data), img.MimeType); err != nil {
		return "", fmt.Errorf("write %s: %w", uri, err)
	}
	slog.InfoContext(ctx, "画像を書き出しました", "uri", uri, "bytes", len(img.Data))
	return uri, nil
}
