package handler

import (
	"net/http"

	"github.com/hitoshi/artshelf/internal/gravatar"
	"github.com/hitoshi/artshelf/internal/model"
)

// GravatarHandler はプロフィール画像URL導出のHTTPハンドラー。
type GravatarHandler struct{}

// NewGravatarHandler はGravatarHandlerを生成する。
func NewGravatarHandler() *GravatarHandler {
	return &GravatarHandler{}
}

// GetGravatar はメールアドレスからGravatar URLを導出する。
// GET /getGravatar?email=
func (h *GravatarHandler) GetGravatar(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingParameterError("email"))
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"gravatarUrl": gravatar.URL(email, gravatar.DefaultSize),
	})
}
