// Package dto は HTTP API の入出力の形です。
package dto

import "time"

type SessionResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"createdAt"`
	Thumbnail     string    `json:"thumbnail"`
	HistoryLength int       `json:"historyLength"`
	Active        bool      `json:"active"`
}

type StateResponse struct {
	Session    SessionResponse `json:"session"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Cursor     int             `json:"cursor"`
	CanUndo    bool            `json:"canUndo"`
	CanRedo    bool            `json:"canRedo"`
	HasOverlay bool            `json:"hasOverlay"`
	Current    string          `json:"current"`
}

type EditResponse struct {
	State      StateResponse `json:"state"`
	PromptText string        `json:"promptText,omitempty"`
	DebugImage string        `json:"debugImage,omitempty"`
}

type ExportResponse struct {
	Location string `json:"location"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type RenameRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type RotateRequest struct {
	Direction string `json:"direction" validate:"required,oneof=left right"`
}

type RedesignRequest struct {
	Prompt        string `json:"prompt" validate:"max=4000"`
	ProductURL    string `json:"productUrl" validate:"omitempty,url,startswith=http"`
	BackgroundURL string `json:"backgroundUrl" validate:"omitempty,url,startswith=http"`
}
