// Package history は生成画像の undo/redo 履歴を、純粋関数の状態遷移として扱います。
package history

import "github.com/shouni/gemini-facade-studio/pkg/domain"

// NoEdit はまだ生成結果が無く、ベース画像を表示している状態のカーソル値です。
const NoEdit = -1

// State は履歴列とカーソルの組です。Cursor は [-1, len(Entries)-1] の範囲をとります。
type State struct {
	Entries []domain.ImageAsset
	Cursor  int
}

// Empty は履歴が空でカーソルが NoEdit の状態です。
func Empty() State {
	return State{Cursor: NoEdit}
}

// AtEnd は履歴の末尾にカーソルを置いた状態を返します。
// 読み込み直後や、セッションを切り替えた直後の状態です。
func AtEnd(entries []domain.ImageAsset) State {
	return State{Entries: entries, Cursor: len(entries) - 1}
}

// Current はカーソル位置の画像を返します。NoEdit の場合は false です。
func (s State) Current() (domain.ImageAsset, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Entries) {
		return domain.ImageAsset{}, false
	}
	return s.Entries[s.Cursor], true
}

// CanUndo は Undo で状態が変わるかを返します。
func (s State) CanUndo() bool { return s.Cursor > NoEdit }

// CanRedo は Redo で状態が変わるかを返します。
func (s State) CanRedo() bool { return s.Cursor < len(s.Entries)-1 }

// Event は状態遷移のイベントです。
type Event interface {
	apply(State) State
	// Persistent は、この遷移が永続化対象の履歴列を変更しうるかを返します。
	Persistent() bool
}

// Append は新しい編集結果の追加です。カーソルより後ろの redo 分岐は破棄されます。
type Append struct {
	Image domain.ImageAsset
}

// Undo はカーソルを 1 つ戻します。NoEdit より前には戻りません。
type Undo struct{}

// Redo はカーソルを 1 つ進めます。末尾より先には進みません。
type Redo struct{}

// Revert は履歴を空にしてベース画像に戻します。
type Revert struct{}

// ResetForBase はベース画像の差し替えに伴う履歴のリセットです。
// 旧ベースのジオメトリで生成された履歴は新しいベースに対して有効である保証がないため破棄します。
type ResetForBase struct{}

// Apply は state に event を適用した新しい状態を返します。state は変更しません。
func Apply(state State, event Event) State {
	return event.apply(normalize(state))
}

func (e Append) apply(s State) State {
	keep := s.Cursor + 1
	entries := make([]domain.ImageAsset, keep, keep+1)
	copy(entries, s.Entries[:keep])
	entries = append(entries, e.Image)
	return State{Entries: entries, Cursor: len(entries) - 1}
}

func (Undo) apply(s State) State {
	if s.Cursor > NoEdit {
		s.Cursor--
	}
	return s
}

func (Redo) apply(s State) State {
	if s.Cursor < len(s.Entries)-1 {
		s.Cursor++
	}
	return s
}

func (Revert) apply(State) State { return Empty() }

func (ResetForBase) apply(State) State { return Empty() }

func (Append) Persistent() bool       { return true }
func (Undo) Persistent() bool         { return false }
func (Redo) Persistent() bool         { return false }
func (Revert) Persistent() bool       { return true }
func (ResetForBase) Persistent() bool { return true }

// normalize は範囲外のカーソルを [-1, len-1] に収めます。
func normalize(s State) State {
	if s.Cursor < NoEdit {
		s.Cursor = NoEdit
	}
	if s.Cursor > len(s.Entries)-1 {
		s.Cursor = len(s.Entries) - 1
	}
	return s
}
