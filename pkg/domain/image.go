package domain

import (
	"encoding/base64"
	"fmt"
)

// ImageAsset はエンコード済みの画像バイナリと MIME タイプの組です。
// コンポーネント間では値として受け渡し、共有された可変状態を持ちません。
type ImageAsset struct {
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// IsZero は画像データを保持していない場合に true を返します。
func (a ImageAsset) IsZero() bool {
	return len(a.Data) == 0
}

// Clone はバイト列をコピーした新しい ImageAsset を返します。
func (a ImageAsset) Clone() ImageAsset {
	if a.Data == nil {
		return ImageAsset{MimeType: a.MimeType}
	}
	data := make([]byte, len(a.Data))
	copy(data, a.Data)
	return ImageAsset{MimeType: a.MimeType, Data: data}
}

// DataURL は UI にそのまま渡せる data: URL 形式の文字列を返します。
func (a ImageAsset) DataURL() string {
	if a.IsZero() {
		return ""
	}
	return fmt.Sprintf("data:%s;base64,%s", a.MimeType, base64.StdEncoding.EncodeToString(a.Data))
}

// Dimensions は元画像（パディング前）の幅と高さです。
// ベース画像ごとに一度だけ取得し、生成結果の正方形画像から再計算してはいけません。
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid は幅と高さがともに正の値であるかを返します。
func (d Dimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// Direction はカメラ回転の方向です。
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// ParseDirection は文字列を Direction に変換します。
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionLeft, DirectionRight:
		return Direction(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// RedesignRequest はリデザイン編集の入力です。
// Product と Background は任意で、ゼロ値の場合は指示に含めません。
type RedesignRequest struct {
	Image         ImageAsset
	Dimensions    Dimensions
	Prompt        string
	Product       ImageAsset
	Background    ImageAsset
	IsSketched    bool
	ProductURL    string
	BackgroundURL string
}

// RotateRequest はカメラ回転編集の入力です。
type RotateRequest struct {
	Image      ImageAsset
	Dimensions Dimensions
	Direction  Direction
}

// EditResult は編集操作の結果です。
// DebugImage はモデルに送った正規化済みの作業画像、PromptText は送信した指示文で、いずれも診断表示用です。
type EditResult struct {
	FinalImage ImageAsset
	DebugImage ImageAsset
	PromptText string
}
