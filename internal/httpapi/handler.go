// Package httpapi serves the directory contract over REST. It is the API
// surface the dashboard client binds to; internal/backend/rest consumes the
// same routes as a drop-in directory implementation.
package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/helioshq/helios-admin/internal/backend"
	"github.com/helioshq/helios-admin/internal/identity"
	"github.com/helioshq/helios-admin/internal/platform/httpx"
)

// maxAvatarBytes caps avatar uploads.
const maxAvatarBytes = 2 << 20

// Handler wires the directory onto HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	dir      backend.Directory
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, dir backend.Directory) *Handler {
	return &Handler{
		logger:   logger,
		dir:      dir,
		validate: validator.New(),
	}
}

// MountRoutes registers the API routes. Login and the password endpoints get
// a tighter per-IP rate limit than the global stack applies.
func (h *Handler) MountRoutes(r chi.Router) {
	authLimit := httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))

	r.Route("/auth", func(r chi.Router) {
		r.With(authLimit).Post("/login", h.login)
		r.With(authLimit).Post("/register", h.register)
		r.With(authLimit).Post("/forgot-password", h.forgotPassword)
		r.With(authLimit).Post("/reset-password", h.resetPassword)
		r.Post("/change-password", h.changePassword)
		r.Post("/logout", h.logout)
		r.Get("/me", h.me)
	})
	r.Route("/profile", func(r chi.Router) {
		r.Put("/", h.updateProfile)
		r.Put("/preferences", h.updatePreferences)
		r.Post("/avatar", h.uploadAvatar)
		r.Delete("/avatar", h.deleteAvatar)
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	User         identity.User `json:"user"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	grant, err := h.dir.Login(r.Context(), backend.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, loginResponse{
		User:         grant.User,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
	}, "")
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=3"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.dir.Register(r.Context(), backend.Registration{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, user, "Account created")
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		httpx.RespondError(w, backend.ErrNotAuthenticated)
		return
	}
	if err := h.dir.Logout(r.Context(), token); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, nil, "Signed out")
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	httpx.OK(w, http.StatusOK, user, "")
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.dir.ForgotPassword(r.Context(), req.Email); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, nil, "If the email exists, a reset link is on its way")
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=3"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.dir.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, nil, "Password updated")
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=3"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		httpx.RespondError(w, backend.ErrNotAuthenticated)
		return
	}
	var req changePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.dir.ChangePassword(r.Context(), token, req.CurrentPassword, req.NewPassword); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, nil, "Password changed")
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		httpx.RespondError(w, backend.ErrNotAuthenticated)
		return
	}
	var patch identity.ProfilePatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.dir.UpdateProfile(r.Context(), token, patch)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, user, "Profile updated")
}

func (h *Handler) updatePreferences(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		httpx.RespondError(w, backend.ErrNotAuthenticated)
		return
	}
	var patch identity.PreferencesPatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.dir.UpdatePreferences(r.Context(), token, patch)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, user, "Preferences saved")
}

func (h *Handler) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		httpx.RespondError(w, backend.ErrNotAuthenticated)
		return
	}
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Avatar file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes))
	if err != nil {
		h.logger.Warn("read avatar upload", slog.Any("error", err))
		httpx.Fail(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	user, err := h.dir.UploadAvatar(r.Context(), token, header.Filename, data)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, user, "Avatar updated")
}

func (h *Handler) deleteAvatar(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		httpx.RespondError(w, backend.ErrNotAuthenticated)
		return
	}
	user, err := h.dir.DeleteAvatar(r.Context(), token)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, user, "Avatar removed")
}

// currentUser resolves the bearer token or writes the failure response.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*identity.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		httpx.RespondError(w, backend.ErrNotAuthenticated)
		return nil, false
	}
	user, err := h.dir.GetCurrentUser(r.Context(), token)
	if err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	return user, true
}

// decode binds and validates the JSON request body.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		var details []string
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details = append(details, fe.Field()+": failed "+fe.Tag())
			}
		}
		httpx.Fail(w, http.StatusBadRequest, "Validation failed", details...)
		return false
	}
	return true
}

func bearerToken(r *http.Request) (string, bool) {
	raw := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(raw, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}
