package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"userdocs-backend/metrics"
	"userdocs-backend/service"
)

// AccountHandler handles registration, login and profile requests
type AccountHandler struct {
	registration *service.RegistrationService
	auth         *service.AuthService
	profiles     *service.ProfileService
	documents    *service.DocumentService
	logger       *zap.SugaredLogger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(
	registration *service.RegistrationService,
	auth *service.AuthService,
	profiles *service.ProfileService,
	documents *service.DocumentService,
	logger *zap.SugaredLogger,
) *AccountHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &AccountHandler{
		registration: registration,
		auth:         auth,
		profiles:     profiles,
		documents:    documents,
		logger:       logger,
	}
}

// RegisterRequest is the multipart body of POST /register
type RegisterRequest struct {
	Username  string `form:"username" binding:"required"`
	Password  string `form:"password" binding:"required"`
	Firstname string `form:"firstname" binding:"required"`
	Lastname  string `form:"lastname" binding:"required"`
	Email     string `form:"email" binding:"required"`
	Address   string `form:"address"`
}

// LoginRequest is the body of POST /login. Empty fields are not rejected
// here; they simply fail to match an account.
type LoginRequest struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// Index handles GET /
func (h *AccountHandler) Index(c *gin.Context) {
	respondOK(c, http.StatusOK, registrationForm(h.documents.AllowedExtensions()))
}

// Register handles POST /register
func (h *AccountHandler) Register(c *gin.Context) {
	var form RegisterRequest
	if err := c.ShouldBind(&form); err != nil {
		if isBodyTooLarge(err) {
			respondError(c, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, "Request body too large")
			return
		}
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		respondError(c, http.StatusBadRequest, CodeMissingField, "username, password, firstname, lastname and email are required")
		return
	}

	req := service.RegisterRequest{
		Username:  form.Username,
		Password:  form.Password,
		Firstname: form.Firstname,
		Lastname:  form.Lastname,
		Email:     form.Email,
	}
	if addr := strings.TrimSpace(form.Address); addr != "" {
		req.Address = &form.Address
	}

	// The file part is optional
	fileHeader, err := c.FormFile("file")
	switch {
	case err == nil && fileHeader.Filename != "":
		file, err := fileHeader.Open()
		if err != nil {
			h.logger.Errorw("failed to open uploaded file", "err", err)
			respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to read uploaded file")
			return
		}
		defer file.Close()
		req.Upload = &service.Upload{Filename: fileHeader.Filename, Content: file}
	case err == nil, errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		if isBodyTooLarge(err) {
			respondError(c, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, "Request body too large")
			return
		}
		respondError(c, http.StatusBadRequest, CodeInvalidForm, "Malformed multipart body")
		return
	}

	result, err := h.registration.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateUsername):
			metrics.RegistrationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
			respondError(c, http.StatusBadRequest, CodeDuplicateUsername, MsgDuplicateUsername)
		case errors.Is(err, service.ErrMissingField):
			metrics.RegistrationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
			respondError(c, http.StatusBadRequest, CodeMissingField, err.Error())
		default:
			metrics.RegistrationsTotal.WithLabelValues(metrics.ResultError).Inc()
			h.logger.Errorw("registration failed", "username", form.Username, "err", err)
			respondError(c, http.StatusInternalServerError, CodeInternal, "Registration failed")
		}
		return
	}

	metrics.RegistrationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	c.Redirect(http.StatusFound, result.RedirectTo)
}

// LoginForm handles GET /login
func (h *AccountHandler) LoginForm(c *gin.Context) {
	respondOK(c, http.StatusOK, loginForm)
}

// Login handles POST /login
func (h *AccountHandler) Login(c *gin.Context) {
	var form LoginRequest
	if err := c.ShouldBind(&form); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidForm, "Malformed form body")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues(metrics.ResultRejected).Inc()
			// re-render the form with the message inline
			c.JSON(http.StatusOK, gin.H{
				"success": false,
				"data":    loginForm,
				"error":   errorBody(CodeInvalidCredentials, MsgInvalidCredentials),
			})
			return
		}
		metrics.LoginsTotal.WithLabelValues(metrics.ResultError).Inc()
		h.logger.Errorw("login failed", "username", form.Username, "err", err)
		respondError(c, http.StatusInternalServerError, CodeInternal, "Login failed")
		return
	}

	metrics.LoginsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	c.Redirect(http.StatusFound, result.RedirectTo)
}

// Profile handles GET /profile/:username
func (h *AccountHandler) Profile(c *gin.Context) {
	username := c.Param("username")

	view, err := h.profiles.BuildProfile(c.Request.Context(), username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, CodeUserNotFound, MsgUserNotFound)
		case errors.Is(err, service.ErrReadFailed):
			respondError(c, http.StatusInternalServerError, CodeReadFailed, "Failed to read attached document")
		default:
			h.logger.Errorw("failed to build profile", "username", username, "err", err)
			respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to load profile")
		}
		return
	}

	respondOK(c, http.StatusOK, view)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge)
}
