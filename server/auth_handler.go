package server

import (
	"net/http"
	"time"

	"Playshare/core/catalog"
	"Playshare/logger"
	"Playshare/model"
)

type tokenResponse struct {
	Token     string   `json:"token"`
	ExpiresAt int64    `json:"expiresAt"`
	User      *UserDTO `json:"user"`
	Redirect  string   `json:"redirect"`
}

func (h *APIHandler) issueToken(w http.ResponseWriter, r *http.Request, status int, user *model.User) {
	token, claims, err := h.tokens.GenerateToken(user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, tokenResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Unix(),
		User:      toUserDTO(user),
		Redirect:  "/",
	})
}

// SignupHandler creates an account and logs it in.
func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		h.writeFormError(w, r, err)
		return
	}

	user, err := h.svc.Signup(r.Context(), catalog.SignupInput{
		Username:  r.FormValue("username"),
		Password1: r.FormValue("password1"),
		Password2: r.FormValue("password2"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.issueToken(w, r, http.StatusCreated, user)
}

// LoginHandler exchanges credentials for a bearer token.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		h.writeFormError(w, r, err)
		return
	}

	user, err := h.svc.Login(r.Context(), catalog.LoginInput{
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	})
	if err != nil {
		if err == catalog.ErrInvalidCredentials {
			logger.Warn("Login failed", logger.String("username", r.FormValue("username")))
		}
		writeError(w, r, err)
		return
	}
	logger.Info("Login succeeded", logger.String("username", user.Username))
	h.issueToken(w, r, http.StatusOK, user)
}

// LogoutHandler revokes the presented token.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if claims := claimsFromContext(r.Context()); claims != nil {
		if err := h.revoked.Revoke(r.Context(), claims.ID, claims.ExpiresIn(time.Now())); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirect": "/"})
}
