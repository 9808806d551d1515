package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-remote-io/pkg/s3factory"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
)

// maxInputBytes は CLI で読み込む画像 1 枚あたりの上限です。
const maxInputBytes = 20 << 20

// remoteIO はローカルパス、gs://、s3:// の読み書きを扱います。
// クラウドのクライアントは最初に必要になった時点で作成します。
type remoteIO struct {
	local     remoteio.InputReader
	newRemote func(ctx context.Context, uri string) (remoteio.IOFactory, error)
	factories map[string]remoteio.IOFactory
}

func newRemoteIO() *remoteIO {
	return &remoteIO{
		local:     remoteio.NewUniversalInputReader(nil, nil),
		newRemote: openRemoteFactory,
		factories: make(map[string]remoteio.IOFactory),
	}
}

func openRemoteFactory(ctx context.Context, uri string) (remoteio.IOFactory, error) {
	if remoteio.IsS3URI(uri) {
		return s3factory.New(ctx)
	}
	return gcsfactory.New(ctx)
}

func (r *remoteIO) factory(ctx context.Context, uri string) (remoteio.IOFactory, error) {
	scheme := "gs"
	if remoteio.IsS3URI(uri) {
		scheme = "s3"
	}
	if f, ok := r.factories[scheme]; ok {
		return f, nil
	}
	f, err := r.newRemote(ctx, uri)
	if err != nil {
		return nil, err
	}
	r.factories[scheme] = f
	return f, nil
}

func (r *remoteIO) reader(ctx context.Context, path string) (remoteio.InputReader, error) {
	if !remoteio.IsRemoteURI(path) {
		return r.local, nil
	}
	f, err := r.factory(ctx, path)
	if err != nil {
		return nil, err
	}
	return f.InputReader()
}

// writer は uri のスキームに対応する OutputWriter を返します。
func (r *remoteIO) writer(ctx context.Context, uri string) (remoteio.OutputWriter, error) {
	if !remoteio.IsRemoteURI(uri) {
		return remoteio.NewUniversalIOWriter(nil, nil), nil
	}
	f, err := r.factory(ctx, uri)
	if err != nil {
		return nil, err
	}
	return f.OutputWriter()
}

// readImage はローカルファイルまたは gs:// / s3:// の画像を読み込みます。
func (r *remoteIO) readImage(ctx context.Context, path string) (domain.ImageAsset, error) {
	reader, err := r.reader(ctx, path)
	if err != nil {
		return domain.ImageAsset{}, fmt.Errorf("open %s: %w", path, err)
	}
	rc, err := reader.Open(ctx, path)
	if err != nil {
		return domain.ImageAsset{}, fmt.Errorf("read %s: %w", path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxInputBytes+1))
	if err != nil {
		return domain.ImageAsset{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) > maxInputBytes {
		return domain.ImageAsset{}, fmt.Errorf("%s is larger than %d bytes", path, maxInputBytes)
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return domain.ImageAsset{}, fmt.Errorf("%w: %s is %s", domain.ErrDecode, path, mimeType)
	}
	return domain.ImageAsset{MimeType: mimeType, Data: data}, nil
}

// reference は --product / --background の指定を画像か URL に振り分けます。
func (r *remoteIO) reference(ctx context.Context, s string) (domain.ImageAsset, string, error) {
	switch {
	case s == "":
		return domain.ImageAsset{}, "", nil
	case isURL(s):
		return domain.ImageAsset{}, s, nil
	default:
		img, err := r.readImage(ctx, s)
		return img, "", err
	}
}

func (r *remoteIO) Close() error {
	var errs []error
	for scheme, f := range r.factories {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s client: %w", scheme, err))
		}
	}
	clear(r.factories)
	return errors.Join(errs...)
}
