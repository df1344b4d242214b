package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shrutimovaliya24/softcool/internal/models"
	"github.com/shrutimovaliya24/softcool/internal/oauth"
	"github.com/shrutimovaliya24/softcool/internal/services"
	"github.com/shrutimovaliya24/softcool/internal/verify"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// GoogleAuthURLHandler handles GET /api/auth/google/url
func (a *App) GoogleAuthURLHandler(w http.ResponseWriter, r *http.Request) {
	if !a.oauthClient.Configured() {
		writeJSON(w, http.StatusInternalServerError, models.APIResponse{
			Success: false,
			Error:   "Google sign-in is not configured",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"url":       a.oauthClient.AuthURL(""),
		"timeoutMs": a.config.OAuthTimeout.Milliseconds(),
	})
}

// GoogleCallbackHandler handles GET /api/auth/google/callback. It runs in
// the popup and always answers with the page that relays the outcome to the
// opener.
func (a *App) GoogleCallbackHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var msg oauth.Message
	outcome := "success"

	switch {
	case q.Get("error") != "":
		outcome = "provider_error"
		msg = oauth.ErrorMessage(q.Get("error"))

	case q.Get("code") != "":
		profile, err := a.oauthClient.Exchange(ctx, q.Get("code"))
		if err != nil {
			a.logger.Error("OAuth code exchange failed", zap.Error(err))
			outcome = "exchange_failed"
			msg = oauth.ErrorMessage(oauth.ErrTextFailed)
			break
		}

		if profile.Name == "" {
			profile.Name = verify.LocalPart(profile.Email)
		}
		if err := a.verifiedEmails.Add(ctx, profile.Email); err != nil {
			a.logger.Warn("Failed to record verified email",
				zap.String("email", profile.Email),
				zap.Error(err))
		}
		msg = oauth.SuccessMessage(models.ProviderGoogle, profile)

	default:
		outcome = "invalid_request"
		msg = oauth.ErrorMessage(oauth.ErrTextInvalidRequest)
	}

	a.metrics.Add(ctx, a.metrics.OAuthCallbacks, 1, attribute.String("outcome", outcome))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := oauth.RenderCallback(w, msg); err != nil {
		a.logger.Error("Failed to render OAuth callback page", zap.Error(err))
	}
}

// VerifyCredentialsHandler handles POST /api/auth/verify-credentials
func (a *App) VerifyCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.logger.Error("Failed to decode verify-credentials body", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.APIResponse{Success: false, Error: "Email verification failed. Please try again."})
		return
	}

	if err := verify.GoogleEmail(req.Email); err != nil {
		writeJSON(w, http.StatusBadRequest, models.APIResponse{Success: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, models.APIResponse{Success: true, Message: "Email verified successfully"})
}

// LoginHandler handles POST /api/auth/login
func (a *App) LoginHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}

	var req models.VerifyCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := verify.GoogleEmail(req.Email); err != nil {
		writeJSON(w, http.StatusBadRequest, models.APIResponse{Success: false, Error: err.Error()})
		return
	}

	email := verify.Normalize(req.Email)
	a.login(w, r, sess, models.UserIdentity{
		Email:    email,
		Name:     verify.LocalPart(email),
		Provider: models.ProviderGoogle,
	}, "email")
}

// OAuthCompleteHandler handles POST /api/auth/oauth/complete with the data
// of an OAUTH_SUCCESS message
func (a *App) OAuthCompleteHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}

	var req models.OAuthCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	identity := models.UserIdentity{
		Email:    verify.Normalize(req.Email),
		Name:     req.Name,
		Provider: req.Provider,
	}
	if identity.Name == "" {
		identity.Name = verify.LocalPart(identity.Email)
	}
	if identity.Provider == "" {
		identity.Provider = models.ProviderGoogle
	}

	a.login(w, r, sess, identity, "oauth")
}

// LogoutHandler handles POST /api/auth/logout
func (a *App) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}

	if err := sess.Logout(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.APIResponse{Success: true, Message: "Logged out"})
}

// MeHandler handles GET /api/auth/me
func (a *App) MeHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(sess))
}

func (a *App) login(w http.ResponseWriter, r *http.Request, sess *services.Session, identity models.UserIdentity, method string) {
	err := sess.Login(r.Context(), identity)
	if errors.Is(err, services.ErrMissingEmail) {
		writeJSON(w, http.StatusBadRequest, models.APIResponse{Success: false, Error: err.Error()})
		return
	}
	if err != nil {
		a.logger.Error("Login failed", zap.String("device_id", sess.DeviceID), zap.Error(err))
		http.Error(w, "Failed to log in", http.StatusInternalServerError)
		return
	}

	a.metrics.Add(r.Context(), a.metrics.LoginsTotal, 1, attribute.String("method", method))
	writeJSON(w, http.StatusOK, sessionResponse(sess))
}

func sessionResponse(sess *services.Session) models.SessionResponse {
	resp := models.SessionResponse{HasSignedUp: sess.Auth.HasSignedUp()}
	if user, ok := sess.Auth.Current(); ok {
		resp.Authenticated = true
		resp.User = &user
	}
	return resp
}
