package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
	"github.com/shouni/gemini-facade-studio/pkg/generator"
	"github.com/shouni/gemini-facade-studio/pkg/history"
	"github.com/shouni/gemini-facade-studio/pkg/imgutil"
)

const thumbnailEdge = 256

// RedesignInput はアクティブセッションに対するリデザイン要求です。
// 作業画像・寸法・スケッチ有無はセッションの状態から決まります。
type RedesignInput struct {
	Prompt        string
	Product       domain.ImageAsset
	Background    domain.ImageAsset
	ProductURL    string
	BackgroundURL string
}

// Studio はセッション一覧とアクティブセッションの状態を保持します。
// メモリ上の一覧が唯一の正であり、確定した状態遷移の後にだけ Repository へ全件を書き込みます。
type Studio struct {
	editor generator.ImageEditor
	repo   Repository
	now    func() time.Time
	newID  func() string

	mu       sync.Mutex
	sessions []domain.Session // 作成日時の新しい順
	activeID string
	state    history.State
	overlay  domain.ImageAsset
	inFlight map[string]struct{}
	version  uint64
	loadErr  error // 直近の Load の失敗。残っている間は変更を受け付けない

	writeMu sync.Mutex
	written uint64
}

// Option は Studio の生成オプションです。
type Option func(*Studio)

// WithClock は現在時刻の取得関数を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(s *Studio) { s.now = now }
}

// WithIDGenerator はセッション ID の採番関数を差し替えます。
func WithIDGenerator(newID func() string) Option {
	return func(s *Studio) { s.newID = newID }
}

// NewStudio は Studio を初期化します。Load を呼ぶまでセッションは空です。
func NewStudio(editor generator.ImageEditor, repo Repository, opts ...Option) (*Studio, error) {
	if editor == nil {
		return nil, fmt.Errorf("editor is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	s := &Studio{
		editor:   editor,
		repo:     repo,
		now:      time.Now,
		newID:    uuid.NewString,
		state:    history.Empty(),
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load はストアから全セッションを読み込み、最も新しいセッションをアクティブにします。
// 失敗した場合、次に Load が成功するまで保存を伴う操作は ErrStoreUnavailable を返します。
func (s *Studio) Load(ctx context.Context) error {
	sessions, err := s.repo.LoadAll(ctx)
	if err != nil {
		err = fmt.Errorf("load sessions: %w", err)
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		s.mu.Lock()
		s.loadErr = err
		s.mu.Unlock()
		return err
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = sessions
	s.loadErr = nil
	s.activeID = ""
	s.state = history.Empty()
	s.overlay = domain.ImageAsset{}
	if len(sessions) > 0 {
		s.activateLocked(sessions[0].ID)
	}
	slog.InfoContext(ctx, "セッションを読み込みました", "count", len(sessions), "active", s.activeID)
	return nil
}

// Sessions はセッション一覧を新しい順に返します。
func (s *Studio) Sessions() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Summary, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = summarize(sess, s.activeID)
	}
	return out
}

// Session は ID を指定してセッションのコピーを返します。
func (s *Studio) Session(id string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return s.sessions[i].Clone(), nil
}

// Active はアクティブセッションの表示状態を返します。
func (s *Studio) Active() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// WorkingImage はアクティブセッションの現在の作業画像を返します。
func (s *Studio) WorkingImage() (domain.ImageAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.activeLocked()
	if err != nil {
		return domain.ImageAsset{}, err
	}
	return WorkingImage(*sess, s.state, s.overlay).Clone(), nil
}

// Create は新しいベース画像からセッションを作成し、一覧の先頭に追加してアクティブにします。
func (s *Studio) Create(ctx context.Context, name string, image domain.ImageAsset) (domain.Session, error) {
	dims, err := imgutil.ReadDimensions(image.Data)
	if err != nil {
		return domain.Session{}, err
	}
	thumb, err := imgutil.Thumbnail(image.Data, thumbnailEdge)
	if err != nil {
		return domain.Session{}, err
	}

	now := s.now()
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Project " + now.Format("2006-01-02 15:04")
	}
	sess := domain.Session{
		ID:                 s.newID(),
		Name:               name,
		CreatedAt:          now,
		Thumbnail:          thumb,
		BaseImage:          image.Clone(),
		OriginalDimensions: dims,
		History:            []domain.ImageAsset{},
	}

	s.mu.Lock()
	if s.loadErr != nil {
		s.mu.Unlock()
		return domain.Session{}, s.loadErr
	}
	s.sessions = append([]domain.Session{sess}, s.sessions...)
	s.activateLocked(sess.ID)
	snap, ver := s.snapshotLocked()
	s.mu.Unlock()

	slog.InfoContext(ctx, "セッションを作成しました", "id", sess.ID, "width", dims.Width, "height", dims.Height)
	s.persist(ctx, snap, ver)
	return sess.Clone(), nil
}

// Activate は指定したセッションをアクティブにします。カーソルは履歴の末尾に置かれ、オーバーレイは破棄されます。
func (s *Studio) Activate(id string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(id) < 0 {
		return View{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	s.activateLocked(id)
	return s.viewLocked()
}

// Delete はセッションを削除します。アクティブだった場合は先頭のセッションをアクティブにします。
func (s *Studio) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.loadErr != nil {
		s.mu.Unlock()
		return s.loadErr
	}
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	s.sessions = append(s.sessions[:i:i], s.sessions[i+1:]...)
	if s.activeID == id {
		s.activeID = ""
		s.state = history.Empty()
		s.overlay = domain.ImageAsset{}
		if len(s.sessions) > 0 {
			s.activateLocked(s.sessions[0].ID)
		}
	}
	snap, ver := s.snapshotLocked()
	s.mu.Unlock()

	slog.InfoContext(ctx, "セッションを削除しました", "id", id)
	s.persist(ctx, snap, ver)
	return nil
}

// Rename はセッション名を変更します。
func (s *Studio) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrEmptyName
	}

	s.mu.Lock()
	if s.loadErr != nil {
		s.mu.Unlock()
		return s.loadErr
	}
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	s.sessions[i].Name = name
	snap, ver := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, snap, ver)
	return nil
}

// SetOverlay はスケッチ画像を次の編集の入力として設定します。
func (s *Studio) SetOverlay(image domain.ImageAsset) (View, error) {
	if image.IsZero() {
		return View{}, fmt.Errorf("%w: overlay is empty", domain.ErrDecode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.idleActiveLocked(); err != nil {
		return View{}, err
	}
	s.overlay = image.Clone()
	return s.viewLocked()
}

// ClearOverlay はスケッチ画像を破棄します。
func (s *Studio) ClearOverlay() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.idleActiveLocked(); err != nil {
		return View{}, err
	}
	s.overlay = domain.ImageAsset{}
	return s.viewLocked()
}

// Undo はカーソルを 1 つ戻します。カーソルは永続化しません。
// 生成中のセッションでは、入力にした画像を残すため ErrEditInFlight を返します。
func (s *Studio) Undo() (View, error) {
	return s.navigate(history.Undo{})
}

// Redo はカーソルを 1 つ進めます。カーソルは永続化しません。
func (s *Studio) Redo() (View, error) {
	return s.navigate(history.Redo{})
}

func (s *Studio) navigate(ev history.Event) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.idleActiveLocked(); err != nil {
		return View{}, err
	}
	s.state = history.Apply(s.state, ev)
	return s.viewLocked()
}

// Revert は履歴を空にしてベース画像に戻します。ベース画像は変更しません。
func (s *Studio) Revert(ctx context.Context) (View, error) {
	return s.mutateHistory(ctx, func(sess *domain.Session) error { return nil }, history.Revert{})
}

// ReplaceBase はトリミング・拡張などで編集したベース画像に差し替え、履歴をリセットします。
// ID と名前は変わりません。
func (s *Studio) ReplaceBase(ctx context.Context, image domain.ImageAsset) (View, error) {
	dims, err := imgutil.ReadDimensions(image.Data)
	if err != nil {
		return View{}, err
	}
	thumb, err := imgutil.Thumbnail(image.Data, thumbnailEdge)
	if err != nil {
		return View{}, err
	}
	return s.mutateHistory(ctx, func(sess *domain.Session) error {
		sess.BaseImage = image.Clone()
		sess.OriginalDimensions = dims
		sess.Thumbnail = thumb
		return nil
	}, history.ResetForBase{})
}

func (s *Studio) mutateHistory(ctx context.Context, mutate func(*domain.Session) error, ev history.Event) (View, error) {
	s.mu.Lock()
	if s.loadErr != nil {
		s.mu.Unlock()
		return View{}, s.loadErr
	}
	sess, err := s.idleActiveLocked()
	if err != nil {
		s.mu.Unlock()
		return View{}, err
	}
	if err := mutate(sess); err != nil {
		s.mu.Unlock()
		return View{}, err
	}
	s.state = history.Apply(s.state, ev)
	sess.History = s.state.Entries
	s.overlay = domain.ImageAsset{}
	view, _ := s.viewLocked()
	snap, ver := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, snap, ver)
	return view, nil
}

// Redesign はアクティブセッションの作業画像に編集を適用し、結果を履歴に追加します。
// オーバーレイがある場合はスケッチ付きの編集として扱います。
func (s *Studio) Redesign(ctx context.Context, in RedesignInput) (*domain.EditResult, error) {
	return s.edit(ctx, func(ctx context.Context, work domain.ImageAsset, dims domain.Dimensions, sketched bool) (*domain.EditResult, error) {
		return s.editor.Redesign(ctx, domain.RedesignRequest{
			Image:         work,
			Dimensions:    dims,
			Prompt:        in.Prompt,
			Product:       in.Product,
			Background:    in.Background,
			ProductURL:    in.ProductURL,
			BackgroundURL: in.BackgroundURL,
			IsSketched:    sketched,
		})
	})
}

// Rotate はアクティブセッションの作業画像のカメラ位置を回転させ、結果を履歴に追加します。
func (s *Studio) Rotate(ctx context.Context, direction domain.Direction) (*domain.EditResult, error) {
	if _, err := domain.ParseDirection(string(direction)); err != nil {
		return nil, err
	}
	return s.edit(ctx, func(ctx context.Context, work domain.ImageAsset, dims domain.Dimensions, _ bool) (*domain.EditResult, error) {
		return s.editor.Rotate(ctx, domain.RotateRequest{Image: work, Dimensions: dims, Direction: direction})
	})
}

type editFunc func(ctx context.Context, work domain.ImageAsset, dims domain.Dimensions, sketched bool) (*domain.EditResult, error)

// edit は 1 セッションにつき同時に 1 つだけ生成呼び出しを実行します。
// 生成中はロックを保持せず、成功した場合にだけ履歴を更新します。
// 結果は常に開始時のカーソル位置の後ろに追加され、それより先の分岐は切り詰められます。
func (s *Studio) edit(ctx context.Context, run editFunc) (*domain.EditResult, error) {
	s.mu.Lock()
	if s.loadErr != nil {
		s.mu.Unlock()
		return nil, s.loadErr
	}
	sess, err := s.idleActiveLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	id := sess.ID
	s.inFlight[id] = struct{}{}
	work := WorkingImage(*sess, s.state, s.overlay).Clone()
	dims := sess.OriginalDimensions
	sketched := !s.overlay.IsZero()
	startCursor := s.state.Cursor
	s.mu.Unlock()

	result, err := run(ctx, work, dims, sketched)

	s.mu.Lock()
	delete(s.inFlight, id)
	if err != nil {
		s.mu.Unlock()
		slog.WarnContext(ctx, "編集に失敗しました", "session", id, "error", err)
		return nil, err
	}
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	target := &s.sessions[i]
	st := history.Apply(history.State{Entries: target.History, Cursor: startCursor}, history.Append{Image: result.FinalImage})
	target.History = st.Entries
	if s.activeID == id {
		s.state = st
		s.overlay = domain.ImageAsset{}
	}
	snap, ver := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, snap, ver)
	return result, nil
}

// persist はスナップショットでストア全体を置き換えます。
// 失敗はログに残すのみで、メモリ上の状態遷移は取り消しません。
// 古いスナップショットが新しいものを上書きしないよう、書き込み済みの版より古いものは捨てます。
func (s *Studio) persist(ctx context.Context, snap []domain.Session, ver uint64) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if ver <= s.written {
		return
	}
	if err := s.repo.ReplaceAll(context.WithoutCancel(ctx), snap); err != nil {
		slog.ErrorContext(ctx, "セッションの保存に失敗しました", "version", ver, "sessions", len(snap), "error", err)
		return
	}
	s.written = ver
}

func (s *Studio) snapshotLocked() ([]domain.Session, uint64) {
	s.version++
	return domain.CloneSessions(s.sessions), s.version
}

func (s *Studio) activateLocked(id string) {
	s.activeID = id
	s.overlay = domain.ImageAsset{}
	if i := s.indexLocked(id); i >= 0 {
		s.state = history.AtEnd(s.sessions[i].History)
	}
}

func (s *Studio) activeLocked() (*domain.Session, error) {
	if s.activeID == "" {
		return nil, domain.ErrNoActiveSession
	}
	i := s.indexLocked(s.activeID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, s.activeID)
	}
	return &s.sessions[i], nil
}

// idleActiveLocked はアクティブセッションを返します。生成中の場合は ErrEditInFlight です。
func (s *Studio) idleActiveLocked() (*domain.Session, error) {
	sess, err := s.activeLocked()
	if err != nil {
		return nil, err
	}
	if _, busy := s.inFlight[sess.ID]; busy {
		return nil, domain.ErrEditInFlight
	}
	return sess, nil
}

func (s *Studio) indexLocked(id string) int {
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Studio) viewLocked() (View, error) {
	sess, err := s.activeLocked()
	if err != nil {
		return View{}, err
	}
	return View{
		Session:    summarize(*sess, s.activeID),
		Dimensions: sess.OriginalDimensions,
		Cursor:     s.state.Cursor,
		CanUndo:    s.state.CanUndo(),
		CanRedo:    s.state.CanRedo(),
		HasOverlay: !s.overlay.IsZero(),
		Current:    WorkingImage(*sess, s.state, s.overlay),
	}, nil
}
