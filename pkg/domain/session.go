package domain

import "time"

// Session は 1 つのプロジェクト（ベース画像と生成履歴）を表します。
// History は生成順に並び、index 0 がベース画像からの最初の編集結果です。
// OriginalDimensions は常に BaseImage を表し、履歴の画像を表すことはありません。
type Session struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	CreatedAt          time.Time    `json:"createdAt"`
	Thumbnail          ImageAsset   `json:"thumbnail"`
	BaseImage          ImageAsset   `json:"baseImage"`
	OriginalDimensions Dimensions   `json:"originalDimensions"`
	History            []ImageAsset `json:"history"`
}

// Clone は画像バイト列を含めて深いコピーを返します。
func (s Session) Clone() Session {
	out := s
	out.Thumbnail = s.Thumbnail.Clone()
	out.BaseImage = s.BaseImage.Clone()
	if s.History != nil {
		out.History = make([]ImageAsset, len(s.History))
		for i, h := range s.History {
			out.History[i] = h.Clone()
		}
	}
	return out
}

// CloneSessions はセッション一覧の深いコピーを返します。
func CloneSessions(sessions []Session) []Session {
	out := make([]Session, len(sessions))
	for i, s := range sessions {
		out[i] = s.Clone()
	}
	return out
}
