package domain

import (
	"context"
	"errors"
)

var (
	ErrDecode           = errors.New("image could not be decoded")
	ErrRender           = errors.New("image surface could not be rendered")
	ErrNoImageReturned  = errors.New("model returned no image")
	ErrStoreUnavailable = errors.New("session store unavailable")
	ErrDimensionRead    = errors.New("image dimensions could not be read")
	ErrTimeout          = errors.New("generation timed out")

	ErrSessionNotFound  = errors.New("session not found")
	ErrNoActiveSession  = errors.New("no active session")
	ErrEditInFlight     = errors.New("an edit is already in progress for this session")
	ErrInvalidDirection = errors.New("invalid rotation direction")
	ErrEmptyPrompt      = errors.New("prompt is required")
	ErrEmptyName        = errors.New("session name is required")
)

// userMessages は利用者に表示する文言です。上から順に評価されます。
var userMessages = []struct {
	err error
	msg string
}{
	{ErrDecode, "The image could not be read. Please upload a valid JPEG, PNG, GIF or WebP file."},
	{ErrDimensionRead, "The size of the uploaded image could not be determined."},
	{ErrRender, "The image could not be processed."},
	{ErrNoImageReturned, "The model did not return an image. Try rephrasing your request."},
	{ErrTimeout, "The edit took too long and was stopped. Please try again."},
	{ErrStoreUnavailable, "Saved sessions are unavailable."},
	{ErrSessionNotFound, "The session no longer exists."},
	{ErrNoActiveSession, "Upload an image to start a session."},
	{ErrEditInFlight, "Please wait for the current edit to finish."},
	{ErrInvalidDirection, "Rotation direction must be left or right."},
	{ErrEmptyPrompt, "Please describe the change you want."},
	{ErrEmptyName, "Please enter a session name."},
}

// UserMessage はエラーを利用者向けの 1 行メッセージに変換します。
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	if errors.Is(err, context.Canceled) {
		return "The request was cancelled."
	}
	return "Something went wrong. Please try again."
}
