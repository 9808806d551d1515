package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/shouni/gemini-facade-studio/internal/server/dto"
	"github.com/shouni/gemini-facade-studio/pkg/domain"
	"github.com/shouni/gemini-facade-studio/pkg/publish"
	"github.com/shouni/gemini-facade-studio/pkg/session"
)

const (
	DefaultMaxUploadBytes = 20 << 20
	maxMemory             = 32 << 20
)

// Handler は Studio を HTTP に公開します。
type Handler struct {
	studio    studioService
	publisher publish.Publisher
	validate  *validator.Validate
	maxUpload int64
	now       func() time.Time
}

// NewHandler は Handler を初期化します。publisher が nil の場合、書き出しは 501 を返します。
func NewHandler(studio studioService, publisher publish.Publisher, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &Handler{
		studio:    studio,
		publisher: publisher,
		validate:  validator.New(),
		maxUpload: maxUpload,
		now:       time.Now,
	}
}

// ListSessions はセッション一覧を新しい順に返します。
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	summaries := h.studio.Sessions()
	out := make([]dto.SessionResponse, len(summaries))
	for i, s := range summaries {
		out[i] = toSessionResponse(s)
	}
	h.respondJSON(w, http.StatusOK, out)
}

// CreateSession はアップロードされたベース画像から新しいセッションを作成します。
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	img, err := h.readUpload(w, r, "file")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.studio.Create(r.Context(), r.FormValue("name"), img); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondState(w, r, http.StatusCreated)
}

// ActiveState はアクティブセッションの表示状態を返します。
func (h *Handler) ActiveState(w http.ResponseWriter, r *http.Request) {
	h.respondState(w, r, http.StatusOK)
}

// ActivateSession は指定したセッションに切り替えます。
func (h *Handler) ActivateSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.studio.Activate(chi.URLParam(r, "id"))
	h.respondView(w, r, view, err)
}

// RenameSession はセッション名を変更します。
func (h *Handler) RenameSession(w http.ResponseWriter, r *http.Request) {
	var req dto.RenameRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.studio.Rename(r.Context(), chi.URLParam(r, "id"), req.Name); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSession はセッションと履歴を削除します。
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.studio.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Redesign は multipart フォーム（参照画像をファイルで渡す）と JSON（URL で渡す）の両方を受け付けます。
func (h *Handler) Redesign(w http.ResponseWriter, r *http.Request) {
	var (
		req dto.RedesignRequest
		in  session.RedesignInput
	)
	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, 3*h.maxUpload)
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			h.respondError(w, r, badRequest("invalid multipart form", err))
			return
		}
		req = dto.RedesignRequest{
			Prompt:        r.FormValue("prompt"),
			ProductURL:    r.FormValue("productUrl"),
			BackgroundURL: r.FormValue("backgroundUrl"),
		}
		var err error
		if in.Product, err = h.optionalFile(r, "product"); err != nil {
			h.respondError(w, r, err)
			return
		}
		if in.Background, err = h.optionalFile(r, "background"); err != nil {
			h.respondError(w, r, err)
			return
		}
	} else if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, r, badRequest("invalid redesign request", err))
		return
	}
	in.Prompt = req.Prompt
	in.ProductURL = req.ProductURL
	in.BackgroundURL = req.BackgroundURL

	res, err := h.studio.Redesign(r.Context(), in)
	h.respondEdit(w, r, res, err)
}

// Rotate はカメラ位置を左右どちらかに 45 度回転させた画像を生成します。
func (h *Handler) Rotate(w http.ResponseWriter, r *http.Request) {
	var req dto.RotateRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	res, err := h.studio.Rotate(r.Context(), domain.Direction(req.Direction))
	h.respondEdit(w, r, res, err)
}

// Undo は履歴のカーソルを 1 つ戻します。
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	view, err := h.studio.Undo()
	h.respondView(w, r, view, err)
}

// Redo は履歴のカーソルを 1 つ進めます。
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	view, err := h.studio.Redo()
	h.respondView(w, r, view, err)
}

// Revert は履歴を破棄してベース画像に戻します。
func (h *Handler) Revert(w http.ResponseWriter, r *http.Request) {
	view, err := h.studio.Revert(r.Context())
	h.respondView(w, r, view, err)
}

// SetOverlay はスケッチ画像を次の編集の入力に設定します。
func (h *Handler) SetOverlay(w http.ResponseWriter, r *http.Request) {
	img, err := h.readUpload(w, r, "file")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	view, err := h.studio.SetOverlay(img)
	h.respondView(w, r, view, err)
}

// ClearOverlay はスケッチ画像を破棄します。
func (h *Handler) ClearOverlay(w http.ResponseWriter, r *http.Request) {
	view, err := h.studio.ClearOverlay()
	h.respondView(w, r, view, err)
}

// ReplaceBase はベース画像を差し替え、履歴をリセットします。
func (h *Handler) ReplaceBase(w http.ResponseWriter, r *http.Request) {
	img, err := h.readUpload(w, r, "file")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	view, err := h.studio.ReplaceBase(r.Context(), img)
	h.respondView(w, r, view, err)
}

// CurrentImage は現在の作業画像をそのまま返します。
func (h *Handler) CurrentImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.studio.WorkingImage()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", img.MimeType)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(img.Data); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write image", "error", err)
	}
}

// Export は現在の作業画像を JPEG にして書き出します。
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		h.respondJSON(w, http.StatusNotImplemented, dto.ErrorResponse{
			Error:   http.StatusText(http.StatusNotImplemented),
			Message: "Export is not configured.",
		})
		return
	}
	view, err := h.studio.Active()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	img, err := publish.AsJPEG(view.Current)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	name := publish.ObjectName(view.Session.ID, h.now(), img.MimeType)
	loc, err := h.publisher.Publish(r.Context(), name, img)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, dto.ExportResponse{Location: loc})
}

// --- request helpers ---

type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *requestError) Unwrap() error { return e.err }

func badRequest(msg string, err error) error {
	return &requestError{msg: msg, err: err}
}

func isMultipart(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "multipart/form-data"
}

func (h *Handler) decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body", err)
	}
	if err := h.validate.Struct(v); err != nil {
		return badRequest("invalid request", err)
	}
	return nil
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request, field string) (domain.ImageAsset, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+maxMemory/32)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return domain.ImageAsset{}, badRequest("invalid multipart form", err)
	}
	img, err := h.optionalFile(r, field)
	if err != nil {
		return domain.ImageAsset{}, err
	}
	if img.IsZero() {
		return domain.ImageAsset{}, badRequest(fmt.Sprintf("%s is required", field), nil)
	}
	return img, nil
}

func (h *Handler) optionalFile(r *http.Request, field string) (domain.ImageAsset, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return domain.ImageAsset{}, nil
	}
	if err != nil {
		return domain.ImageAsset{}, badRequest("invalid "+field, err)
	}
	defer file.Close()

	if header.Size > h.maxUpload {
		return domain.ImageAsset{}, badRequest(fmt.Sprintf("%s is too large (max %d MB)", field, h.maxUpload>>20), nil)
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		return domain.ImageAsset{}, badRequest("failed to read "+field, err)
	}
	if int64(len(data)) > h.maxUpload {
		return domain.ImageAsset{}, badRequest(fmt.Sprintf("%s is too large (max %d MB)", field, h.maxUpload>>20), nil)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return domain.ImageAsset{}, fmt.Errorf("%w: %s is %s", domain.ErrDecode, field, mimeType)
	}
	return domain.ImageAsset{MimeType: mimeType, Data: data}, nil
}

// --- response helpers ---

func (h *Handler) respondState(w http.ResponseWriter, r *http.Request, status int) {
	view, err := h.studio.Active()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, status, toStateResponse(view))
}

func (h *Handler) respondView(w http.ResponseWriter, r *http.Request, view session.View, err error) {
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toStateResponse(view))
}

func (h *Handler) respondEdit(w http.ResponseWriter, r *http.Request, res *domain.EditResult, err error) {
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	view, err := h.studio.Active()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, dto.EditResponse{
		State:      toStateResponse(view),
		PromptText: res.PromptText,
		DebugImage: res.DebugImage.DataURL(),
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: domain.UserMessage(err),
		Details: err.Error(),
	}
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		resp.Message = reqErr.msg
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		slog.WarnContext(r.Context(), "Request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	h.respondJSON(w, status, resp)
}

// statusFor はエラー種別を HTTP ステータスに対応付けます。
func statusFor(err error) int {
	var reqErr *requestError
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &reqErr),
		errors.Is(err, domain.ErrDecode),
		errors.Is(err, domain.ErrDimensionRead),
		errors.Is(err, domain.ErrInvalidDirection),
		errors.Is(err, domain.ErrEmptyPrompt),
		errors.Is(err, domain.ErrEmptyName):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoActiveSession),
		errors.Is(err, domain.ErrEditInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoImageReturned):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func toSessionResponse(s session.Summary) dto.SessionResponse {
	return dto.SessionResponse{
		ID:            s.ID,
		Name:          s.Name,
		CreatedAt:     s.CreatedAt,
		Thumbnail:     s.Thumbnail.DataURL(),
		HistoryLength: s.HistoryLength,
		Active:        s.Active,
	}
}

func toStateResponse(v session.View) dto.StateResponse {
	return dto.StateResponse{
		Session:    toSessionResponse(v.Session),
		Width:      v.Dimensions.Width,
		Height:     v.Dimensions.Height,
		Cursor:     v.Cursor,
		CanUndo:    v.CanUndo,
		CanRedo:    v.CanRedo,
		HasOverlay: v.HasOverlay,
		Current:    v.Current.DataURL(),
	}
}
