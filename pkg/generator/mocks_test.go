package generator

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
	"github.com/shouni/gemini-facade-studio/pkg/prompt"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// --- Mocks ---

type mockAIClient struct {
	calls        int
	lastModel    string
	lastParts    []*genai.Part
	lastOpts     gemini.GenerateOptions
	generateFunc func(ctx context.Context, parts []*genai.Part) (*gemini.Response, error)
}

func (m *mockAIClient) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	m.calls++
	m.lastModel = model
	m.lastParts = parts
	m.lastOpts = opts
	if m.generateFunc != nil {
		return m.generateFunc(ctx, parts)
	}
	return imageResponse("image/png", []byte("fake")), nil
}

type mockHTTPClient struct {
	calls int
	data  []byte
	err   error
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.calls++
	return m.data, m.err
}

type mockCache struct {
	data map[string]any
}

func (m *mockCache) Get(key string) (any, bool) {
	val, ok := m.data[key]
	return val, ok
}

func (m *mockCache) Set(key string, value any, d time.Duration) {
	m.data[key] = value
}

type mockExecutor struct {
	lastComp    prompt.Composition
	executeFunc func(ctx context.Context, comp prompt.Composition) (domain.ImageAsset, error)
	prepareFunc func(ctx context.Context, rawURL string) (domain.ImageAsset, error)
}

func (m *mockExecutor) ExecuteRequest(ctx context.Context, comp prompt.Composition) (domain.ImageAsset, error) {
	m.lastComp = comp
	return m.executeFunc(ctx, comp)
}

func (m *mockExecutor) PrepareReference(ctx context.Context, rawURL string) (domain.ImageAsset, error) {
	if m.prepareFunc == nil {
		return domain.ImageAsset{}, nil
	}
	return m.prepareFunc(ctx, rawURL)
}

// --- Helpers ---

func imageResponse(mimeType string, data []byte) *gemini.Response {
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
				},
			}},
		},
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{40, 160, 60, 255})
		}
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}
