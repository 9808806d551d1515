package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
	"github.com/shouni/gemini-facade-studio/pkg/prompt"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestNewGeminiImageCore(t *testing.T) {
	_, err := NewGeminiImageCore(nil, nil, nil, time.Hour, "model")
	assert.Error(t, err, "aiClient が無い場合はエラー")

	_, err = NewGeminiImageCore(&mockAIClient{}, nil, nil, time.Hour, " ")
	assert.Error(t, err, "model が無い場合はエラー")
}

func TestGeminiImageCore_ExecuteRequest(t *testing.T) {
	ctx := context.Background()
	comp := prompt.Composition{
		Images: []domain.ImageAsset{
			{MimeType: "image/jpeg", Data: []byte("primary")},
			{MimeType: "image/jpeg", Data: []byte("product")},
		},
		Text: "instructions",
	}

	t.Run("画像パーツを先頭、テキストを末尾に並べて送信する", func(t *testing.T) {
		ai := &mockAIClient{}
		core, err := NewGeminiImageCore(ai, nil, nil, time.Hour, "gemini-test")
		require.NoError(t, err)

		out, err := core.ExecuteRequest(ctx, comp)
		require.NoError(t, err)

		assert.Equal(t, "gemini-test", ai.lastModel)
		require.Len(t, ai.lastParts, 3)
		assert.Equal(t, []byte("primary"), ai.lastParts[0].InlineData.Data)
		assert.Equal(t, []byte("product"), ai.lastParts[1].InlineData.Data)
		assert.Equal(t, "instructions", ai.lastParts[2].Text)
		assert.Equal(t, "1:1", ai.lastOpts.AspectRatio, "正規化済みの正方形で出力させる")
		assert.Equal(t, domain.ImageAsset{MimeType: "image/png", Data: []byte("fake")}, out)
	})

	t.Run("通信エラーはそのまま返す", func(t *testing.T) {
		expected := errors.New("quota exceeded")
		ai := &mockAIClient{generateFunc: func(ctx context.Context, parts []*genai.Part) (*gemini.Response, error) {
			return nil, expected
		}}
		core, _ := NewGeminiImageCore(ai, nil, nil, time.Hour, "m")

		_, err := core.ExecuteRequest(ctx, comp)
		assert.ErrorIs(t, err, expected)
		assert.Equal(t, 1, ai.calls, "自動リトライしてはいけない")
	})

	t.Run("画像が無い応答は NoImageReturned", func(t *testing.T) {
		ai := &mockAIClient{generateFunc: func(ctx context.Context, parts []*genai.Part) (*gemini.Response, error) {
			return &gemini.Response{RawResponse: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "I can't do that"}}}}},
			}}, nil
		}}
		core, _ := NewGeminiImageCore(ai, nil, nil, time.Hour, "m")

		_, err := core.ExecuteRequest(ctx, comp)
		assert.ErrorIs(t, err, domain.ErrNoImageReturned)
	})
}

func TestGeminiImageCore_PrepareReference(t *testing.T) {
	ctx := context.Background()
	validPng := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90w\x53\xde")

	t.Run("キャッシュにある場合はダウンロードしない", func(t *testing.T) {
		rawURL := "https://example.com/door.png"
		cached := domain.ImageAsset{MimeType: "image/png", Data: validPng}
		cache := &mockCache{data: map[string]any{cacheKeyReference + rawURL: cached}}
		httpMock := &mockHTTPClient{}
		core, _ := NewGeminiImageCore(&mockAIClient{}, httpMock, cache, time.Hour, "m")

		got, err := core.PrepareReference(ctx, rawURL)
		require.NoError(t, err)
		assert.Equal(t, cached, got)
		assert.Zero(t, httpMock.calls)
	})

	t.Run("不正なURLはダウンロード前に拒否する", func(t *testing.T) {
		httpMock := &mockHTTPClient{data: validPng}
		core, _ := NewGeminiImageCore(&mockAIClient{}, httpMock, &mockCache{data: map[string]any{}}, time.Hour, "m")

		_, err := core.PrepareReference(ctx, "http://127.0.0.1/evil.png")
		assert.Error(t, err)
		assert.Zero(t, httpMock.calls)

		_, err = core.PrepareReference(ctx, "file:///etc/passwd")
		assert.Error(t, err)
	})

	t.Run("HTTPクライアントが無い場合はエラー", func(t *testing.T) {
		core, _ := NewGeminiImageCore(&mockAIClient{}, nil, nil, time.Hour, "m")
		_, err := core.PrepareReference(ctx, "https://example.com/a.png")
		assert.Error(t, err)
	})
}
