package generator

import (
	"context"
	"fmt"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// GenAIModel は google.golang.org/genai を利用して画像のみを返すよう構成された GenerativeModel です。
type GenAIModel struct {
	client *genai.Client
}

// NewGenAIModel は API キーから Gemini API 用のクライアントを作成します。
func NewGenAIModel(ctx context.Context, apiKey string) (*GenAIModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GenAIModel{client: client}, nil
}

// GenerateWithParts はパーツ列を 1 つのユーザーコンテンツとして 1 回だけ送信します。
// 出力モダリティは画像のみに制限します。
func (m *GenAIModel) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := m.client.Models.GenerateContent(ctx, model, contents, generateConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	return &gemini.Response{RawResponse: resp}, nil
}

// generateConfig は gemini.GenerateOptions を genai の設定へ写します。
func generateConfig(opts gemini.GenerateOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
		Temperature:        opts.Temperature,
		TopP:               opts.TopP,
		SafetySettings:     opts.SafetySettings,
	}
	if opts.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(opts.SystemPrompt, genai.RoleUser)
	}
	if opts.CandidateCount != nil {
		config.CandidateCount = *opts.CandidateCount
	}
	if opts.Seed != nil {
		seed := int32(*opts.Seed)
		config.Seed = &seed
	}
	if opts.AspectRatio != "" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: opts.AspectRatio}
	}
	return config
}

var _ GenerativeModel = (*GenAIModel)(nil)
