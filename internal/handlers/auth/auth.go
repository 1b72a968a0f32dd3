package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/dto"
	"github.com/GlebRadaev/akalimo/internal/handlers/httperr"
	"github.com/GlebRadaev/akalimo/internal/service/authservice"
	"github.com/GlebRadaev/akalimo/pkg/utils"
	"github.com/google/uuid"
)

//go:generate mockgen -source=auth.go -destination=mock_auth.go -package=auth

type Service interface {
	Register(ctx context.Context, in authservice.RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, phone, password string) (*domain.User, error)
	GenerateToken(userID uuid.UUID, role domain.Role) (string, error)
}

type AuthHandler struct {
	authService Service
}

func New(authService Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register godoc
//
//	@Summary		Register a new user
//	@Description	Create an account with phone and password. A profile and an empty wallet are created with it.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.RegisterRequestDTO	true	"Register request body"
//	@Success		201		{object}	dto.AuthResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		409		{object}	utils.Response	"Phone already registered"
//	@Failure		422		{object}	utils.Response	"Validation error"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.authService.Register(r.Context(), authservice.RegisterInput{
		Phone:    req.Phone,
		Password: req.Password,
		FullName: req.FullName,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}
	h.respondWithToken(w, http.StatusCreated, user, "User successfully registered")
}

// Login godoc
//
//	@Summary		Authenticate user
//	@Description	Log in with phone and password and get a JWT token
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.LoginRequestDTO	true	"Login request body"
//	@Success		200		{object}	dto.AuthResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"Invalid credentials"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequestDTO
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.authService.Authenticate(r.Context(), req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		httperr.Write(w, err)
		return
	}
	h.respondWithToken(w, http.StatusOK, user, "User successfully authenticated")
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, code int, user *domain.User, message string) {
	token, err := h.authService.GenerateToken(user.ID, user.Role)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error generating token")
		return
	}
	w.Header().Set("Authorization", "Bearer "+token)
	utils.RespondWithJSON(w, code, dto.AuthResponseDTO{
		Message: message,
		Token:   token,
		UserID:  user.ID.String(),
		Role:    string(user.Role),
	})
}
