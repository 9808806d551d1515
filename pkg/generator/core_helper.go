package generator

import (
	"fmt"
	"net/http"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
	"github.com/shouni/gemini-facade-studio/pkg/prompt"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// toParts は画像パーツを先頭に、指示テキストを末尾に並べます。
func toParts(comp prompt.Composition) []*genai.Part {
	parts := make([]*genai.Part, 0, len(comp.Images)+1)
	for _, img := range comp.Images {
		parts = append(parts, toPart(img))
	}
	return append(parts, &genai.Part{Text: comp.Text})
}

func toPart(img domain.ImageAsset) *genai.Part {
	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(img.Data)
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: img.Data}}
}

// parseToResponse は最初の候補からインライン画像を持つ最初のパーツを取り出します。
// 見つからない場合は ErrNoImageReturned を返します。
func parseToResponse(resp *gemini.Response) (domain.ImageAsset, error) {
	if resp == nil || resp.RawResponse == nil {
		return domain.ImageAsset{}, fmt.Errorf("%w: empty response", domain.ErrNoImageReturned)
	}
	raw := resp.RawResponse
	if len(raw.Candidates) == 0 {
		if raw.PromptFeedback != nil && raw.PromptFeedback.BlockReason != "" {
			return domain.ImageAsset{}, fmt.Errorf("%w: prompt blocked (%s)", domain.ErrNoImageReturned, raw.PromptFeedback.BlockReason)
		}
		return domain.ImageAsset{}, fmt.Errorf("%w: no candidates", domain.ErrNoImageReturned)
	}

	// 現在の仕様では、最初の候補 (Candidate) のみを利用する。
	candidate := raw.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = http.DetectContentType(part.InlineData.Data)
			}
			return domain.ImageAsset{MimeType: mimeType, Data: part.InlineData.Data}, nil
		}
	}

	// 安全フィルター等によるブロックの確認
	if candidate.FinishReason != "" && candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return domain.ImageAsset{}, fmt.Errorf("%w: finish reason %s", domain.ErrNoImageReturned, candidate.FinishReason)
	}
	return domain.ImageAsset{}, fmt.Errorf("%w: no inline image part", domain.ErrNoImageReturned)
}
