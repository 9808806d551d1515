package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
	"github.com/shouni/gemini-facade-studio/pkg/prompt"
	"github.com/shouni/go-gemini-client/pkg/gemini"
)

// GeminiImageCore はリクエスト送信と参照画像の取得を担う基盤クラスです。
type GeminiImageCore struct {
	aiClient   GenerativeModel
	httpClient HTTPClient
	cache      ImageCacher
	expiration time.Duration
	model      string
}

// NewGeminiImageCore は依存関係を注入して GeminiImageCore を初期化します。
func NewGeminiImageCore(aiClient GenerativeModel, httpClient HTTPClient, cache ImageCacher, cacheTTL time.Duration, model string) (*GeminiImageCore, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	// httpClient が nil の場合は URL 参照画像を扱えません。cache は nil を許容します。

	return &GeminiImageCore{
		aiClient:   aiClient,
		httpClient: httpClient,
		cache:      cache,
		expiration: cacheTTL,
		model:      model,
	}, nil
}

// ExecuteRequest は画像パーツとテキストを 1 回の生成呼び出しとして送信し、
// 返却された最初のインライン画像を返します。自動リトライは行いません。
func (c *GeminiImageCore) ExecuteRequest(ctx context.Context, comp prompt.Composition) (domain.ImageAsset, error) {
	parts := toParts(comp)
	slog.InfoContext(ctx, "Gemini画像編集リクエストを送信します", "model", c.model, "total_parts", len(parts), "images", comp.ImageCount())

	// 入力はすべて正方形に正規化済みのため、出力も正方形を指定します。
	resp, err := c.aiClient.GenerateWithParts(ctx, c.model, parts, gemini.GenerateOptions{AspectRatio: squareAspectRatio})
	if err != nil {
		return domain.ImageAsset{}, err
	}
	return parseToResponse(resp)
}

// PrepareReference は URL から参照画像を取得します。取得結果は URL 単位でキャッシュします。
func (c *GeminiImageCore) PrepareReference(ctx context.Context, rawURL string) (domain.ImageAsset, error) {
	key := cacheKeyReference + rawURL
	if c.cache != nil {
		if val, ok := c.cache.Get(key); ok {
			if asset, ok := val.(domain.ImageAsset); ok {
				return asset.Clone(), nil
			}
			slog.WarnContext(ctx, "キャッシュデータが不正な型です", "url", rawURL, "type", fmt.Sprintf("%T", val))
		}
	}
	if c.httpClient == nil {
		return domain.ImageAsset{}, errors.New("reference images by URL are not enabled")
	}

	if safe, err := IsSafeURL(rawURL); err != nil || !safe {
		return domain.ImageAsset{}, fmt.Errorf("安全ではないURLが指定されました: %w", err)
	}

	data, err := c.httpClient.FetchBytes(ctx, rawURL)
	if err != nil {
		return domain.ImageAsset{}, fmt.Errorf("参照画像のダウンロードに失敗しました: %w", err)
	}
	if len(data) > maxReferenceBytes {
		return domain.ImageAsset{}, fmt.Errorf("参照画像が大きすぎます: %d bytes", len(data))
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return domain.ImageAsset{}, fmt.Errorf("%w: detected %s", domain.ErrDecode, mimeType)
	}
	asset := domain.ImageAsset{MimeType: mimeType, Data: data}

	if c.cache != nil {
		c.cache.Set(key, asset.Clone(), c.expiration)
	}
	return asset, nil
}
