package generator

import (
	"context"
	"time"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
	"github.com/shouni/gemini-facade-studio/pkg/prompt"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// GenerativeModel は画像生成モデルとの通信を抽象化するインターフェースです。
// gemini.GenerativeModel のうち、本パッケージが利用するメソッドのみを定義しています。
type GenerativeModel interface {
	GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
}

// ImageEditor はセッション層が利用する編集操作の統合窓口です。
type ImageEditor interface {
	Redesign(ctx context.Context, req domain.RedesignRequest) (*domain.EditResult, error)
	Rotate(ctx context.Context, req domain.RotateRequest) (*domain.EditResult, error)
}

// ImageExecutor は、組み立て済みのリクエストを送信し、参照画像を準備するためのインターフェースです。
type ImageExecutor interface {
	// ExecuteRequest は、リクエストを送信して返却された最初の画像を返します。
	ExecuteRequest(ctx context.Context, comp prompt.Composition) (domain.ImageAsset, error)
	// PrepareReference は、URL で指定された参照画像を取得します。
	PrepareReference(ctx context.Context, rawURL string) (domain.ImageAsset, error)
}

// ImageCacher は、画像をキャッシュするためのインターフェースです。
type ImageCacher interface {
	// Get は、指定されたキーに紐づくアイテムを取得します。
	Get(key string) (any, bool)
	// Set は、指定されたキーと値、有効期限でアイテムを保存します。
	Set(key string, value any, d time.Duration)
}

// HTTPClient は、URLからデータを取得するためのインターフェースです。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}
