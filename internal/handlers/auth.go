package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"homepros/internal/apperr"
	"homepros/internal/middleware"
	"homepros/internal/models"
	"homepros/internal/session"
	"homepros/internal/store"
)

// totpIssuer labels the account in authenticator apps.
const totpIssuer = "Jacksonville Home Pros"

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	responder
	sessions  *session.Store
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions *session.Store, userStore *store.UserStore, showDetails bool) *Auth {
	return &Auth{
		responder: responder{showDetails: showDetails},
		sessions:  sessions,
		userStore: userStore,
	}
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// startSession creates a session for user. Admins start with TwoFADone
// false and must pass the TOTP step before the admin API opens.
func (a *Auth) startSession(w http.ResponseWriter, r *http.Request, user *models.User) error {
	_, err := a.sessions.Create(r.Context(), w, &session.Data{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		TwoFADone: false,
	})
	return err
}

// Register handles POST /auth/register and signs the new user in.
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := decodeJSON(r, &body); err != nil {
		a.fail(w, r, "register", err)
		return
	}
	if msg := validateRegistration(body.Email, body.Password, body.Name); msg != "" {
		a.fail(w, r, "register", apperr.Validation(msg))
		return
	}

	user, err := a.userStore.Create(r.Context(), body.Email, body.Password, strings.TrimSpace(body.Name), models.RoleUser)
	if err != nil {
		a.fail(w, r, "register", err)
		return
	}
	if err := a.startSession(w, r, user); err != nil {
		a.fail(w, r, "register", err)
		return
	}

	slog.Info("user registered", "user_id", user.ID)
	a.ok(w, http.StatusCreated, envelope{"user": user})
}

// Login handles POST /auth/login. Admin accounts are told which TOTP step
// comes next.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := decodeJSON(r, &body); err != nil {
		a.fail(w, r, "sign in", err)
		return
	}

	user, err := a.userStore.FindByEmail(r.Context(), body.Email)
	if err != nil {
		a.fail(w, r, "sign in", err)
		return
	}
	if user == nil || !a.userStore.CheckPassword(user, body.Password) {
		a.fail(w, r, "sign in", apperr.Unauthorized("Invalid email or password"))
		return
	}

	if err := a.startSession(w, r, user); err != nil {
		a.fail(w, r, "sign in", err)
		return
	}

	env := envelope{"user": user}
	switch {
	case user.Needs2FASetup():
		env["next"] = "2fa_setup"
	case user.IsAdmin():
		env["next"] = "2fa_verify"
	}
	a.ok(w, http.StatusOK, env)
}

// Logout handles POST /auth/logout.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	a.ok(w, http.StatusOK, nil)
}

// Me handles GET /auth/me. It also hands out the CSRF token clients echo
// on state-changing requests.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	user, err := a.userStore.FindByID(r.Context(), sess.UserID)
	if err != nil {
		a.fail(w, r, "load account", err)
		return
	}
	if user == nil {
		a.sessions.Destroy(r.Context(), w, r)
		a.fail(w, r, "load account", apperr.Unauthorized("Authentication required"))
		return
	}

	a.ok(w, http.StatusOK, envelope{
		"user":      user,
		"twoFADone": sess.TwoFADone,
		"csrfToken": middleware.CSRFTokenFromCtx(r.Context()),
	})
}

// TwoFASetup handles GET /auth/2fa/setup. It generates a TOTP secret for an
// admin who has not enabled 2FA and returns it with a QR code.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess.Role != models.RoleAdmin {
		a.fail(w, r, "set up two-factor authentication", apperr.Forbidden("two-factor authentication is only used for admin accounts"))
		return
	}

	user, err := a.userStore.FindByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		a.fail(w, r, "set up two-factor authentication", apperr.Internal(err))
		return
	}
	if user.TOTPEnabled {
		a.fail(w, r, "set up two-factor authentication", apperr.Conflict("two-factor authentication is already enabled"))
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: sess.Email,
	})
	if err != nil {
		a.fail(w, r, "set up two-factor authentication", err)
		return
	}

	if err := a.userStore.SetTOTPSecret(r.Context(), sess.UserID, key.Secret()); err != nil {
		a.fail(w, r, "set up two-factor authentication", err)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		a.fail(w, r, "set up two-factor authentication", err)
		return
	}

	a.ok(w, http.StatusOK, envelope{
		"secret":     key.Secret(),
		"otpauthUrl": key.URL(),
		"qrCode":     "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrPNG),
	})
}

type codeBody struct {
	Code string `json:"code"`
}

// TwoFAVerify handles POST /auth/2fa/verify. A valid code enables TOTP on
// first use and marks the session as fully authenticated.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var body codeBody
	if err := decodeJSON(r, &body); err != nil {
		a.fail(w, r, "verify code", err)
		return
	}

	user, err := a.userStore.FindByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		a.fail(w, r, "verify code", apperr.Internal(err))
		return
	}
	if user.TOTPSecret == nil {
		a.fail(w, r, "verify code", apperr.Rule("two-factor setup has not been started"))
		return
	}

	if !totp.Validate(strings.TrimSpace(body.Code), *user.TOTPSecret) {
		a.fail(w, r, "verify code", apperr.Unauthorized("Invalid code. Please try again."))
		return
	}

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(r.Context(), user.ID); err != nil {
			a.fail(w, r, "verify code", err)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		a.fail(w, r, "verify code", err)
		return
	}

	a.ok(w, http.StatusOK, envelope{"twoFADone": true})
}

// ResetTwoFA handles POST /admin/users/{id}/reset-2fa. The user's sessions
// are revoked and they must set up 2FA again on their next sign-in.
func (a *Auth) ResetTwoFA(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.fail(w, r, "reset two-factor authentication", err)
		return
	}
	if err := a.userStore.ResetTOTP(r.Context(), id); err != nil {
		a.fail(w, r, "reset two-factor authentication", err)
		return
	}
	revoked, err := a.sessions.RevokeUser(r.Context(), id)
	if err != nil {
		a.fail(w, r, "reset two-factor authentication", err)
		return
	}
	slog.Info("totp reset", "user_id", id, "sessions_revoked", revoked,
		"by", middleware.SessionFromCtx(r.Context()).UserID)
	a.ok(w, http.StatusOK, envelope{"message": "Two-factor authentication reset", "sessionsRevoked": revoked})
}
