package session

import (
	"time"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
	"github.com/shouni/gemini-facade-studio/pkg/history"
)

// Summary はセッション一覧の表示用情報です。
type Summary struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	CreatedAt     time.Time         `json:"createdAt"`
	Thumbnail     domain.ImageAsset `json:"thumbnail"`
	HistoryLength int               `json:"historyLength"`
	Active        bool              `json:"active"`
}

// View はアクティブなセッションの表示状態です。
type View struct {
	Session    Summary           `json:"session"`
	Dimensions domain.Dimensions `json:"dimensions"`
	Cursor     int               `json:"cursor"`
	CanUndo    bool              `json:"canUndo"`
	CanRedo    bool              `json:"canRedo"`
	HasOverlay bool              `json:"hasOverlay"`
	Current    domain.ImageAsset `json:"current"`
}

func summarize(s domain.Session, activeID string) Summary {
	return Summary{
		ID:            s.ID,
		Name:          s.Name,
		CreatedAt:     s.CreatedAt,
		Thumbnail:     s.Thumbnail,
		HistoryLength: len(s.History),
		Active:        s.ID == activeID,
	}
}

// WorkingImage は次の編集の入力となる画像を返します。
// 優先順位は オーバーレイ > カーソル位置の履歴 > ベース画像 です。
func WorkingImage(s domain.Session, state history.State, overlay domain.ImageAsset) domain.ImageAsset {
	if !overlay.IsZero() {
		return overlay
	}
	if cur, ok := state.Current(); ok {
		return cur
	}
	return s.BaseImage
}
