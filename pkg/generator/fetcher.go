package generator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// ReferenceFetcher は参照画像を取得する HTTPClient の実装です。
// 接続は httpkit の SafeHTTPClient を通るため、リダイレクト先を含むすべての接続先 IP が検証されます。
// httpkit.Client.FetchBytes は指数バックオフで再試行するため、ここでは Do と HandleResponse を使い 1 回だけ取得します。
type ReferenceFetcher struct {
	client   httpkit.ClientInterface
	checkURL func(string) (bool, error)
}

// NewReferenceFetcher は指定したタイムアウトを持つ ReferenceFetcher を作成します。
func NewReferenceFetcher(timeout time.Duration) *ReferenceFetcher {
	return newReferenceFetcher(httpkit.New(timeout))
}

func newReferenceFetcher(client httpkit.ClientInterface) *ReferenceFetcher {
	return &ReferenceFetcher{client: client, checkURL: client.IsSafeURL}
}

// FetchBytes は URL の内容を取得します。ボディは httpkit.MaxResponseBodySize までです。
func (f *ReferenceFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	if ok, err := f.checkURL(url); !ok {
		if err == nil {
			err = fmt.Errorf("blocked by network policy")
		}
		return nil, fmt.Errorf("SSRF安全検証エラー: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエスト作成失敗 (url: %s): %w", url, err)
	}
	req.Header.Set("User-Agent", httpkit.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエスト失敗 (url: %s): %w", url, err)
	}
	return httpkit.HandleResponse(resp)
}

var _ HTTPClient = (*ReferenceFetcher)(nil)
