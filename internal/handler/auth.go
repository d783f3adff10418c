package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/civiport-dev/civiport/internal/api"
	"github.com/civiport-dev/civiport/internal/domain"
	"github.com/civiport-dev/civiport/internal/errors"
	"github.com/civiport-dev/civiport/internal/logger"
	"github.com/civiport-dev/civiport/internal/utils"
)

const oauthStateCookie = "oauthState"

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	user, err := h.auth.Register(req.Email, req.Password, req.Name, domain.Role(req.Role))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.RegisterResponse{
		Message: "Account created. You can log in now",
		User:    userResponse(user),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		// A malformed login must be indistinguishable from wrong credentials.
		utils.WriteErrorAndStatusCode(w, errors.Unauthorized())
		return
	}

	token, user, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.LoginResponse{
		Token: token,
		User:  userResponse(user),
	})
}

// GoogleLogin starts the provider handshake. Answers 503 when the provider
// credentials are not configured.
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.oauth.Enabled() {
		utils.WriteErrorAndStatusCode(w, errors.New("Google sign-in is not configured", http.StatusServiceUnavailable))
		return
	}

	state, err := randomState()
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.oauth.AuthURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback finishes the handshake and redirects to the client app
// with the session token and the user profile in the query string.
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if !h.oauth.Enabled() {
		utils.WriteErrorAndStatusCode(w, errors.New("Google sign-in is not configured", http.StatusServiceUnavailable))
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		utils.WriteErrorAndStatusCode(w, errors.BadRequest("OAuth state mismatch"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	code := r.URL.Query().Get("code")
	if code == "" {
		utils.WriteErrorAndStatusCode(w, errors.BadRequest("Missing authorization code"))
		return
	}

	token, user, err := h.oauth.HandleCallback(r.Context(), code)
	if err != nil {
		// The caller is a browser mid-redirect, so failures go to the
		// client's login page instead of a JSON body.
		logger.Log.Error("oauth callback failed", "error", err)
		http.Redirect(w, r, h.cfg.Public.ClientURL+"/login?error=oauth_failed", http.StatusFound)
		return
	}

	http.Redirect(w, r, h.clientRedirectURL(token, user), http.StatusTemporaryRedirect)
}

func (h *Handler) clientRedirectURL(token string, user domain.User) string {
	userJSON, _ := json.Marshal(userResponse(user))
	q := url.Values{}
	q.Set("token", token)
	q.Set("user", string(userJSON))
	return h.cfg.Public.ClientURL + "/auth/google/callback?" + q.Encode()
}

func randomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
