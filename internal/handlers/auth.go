package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hospital-scheduling-server/internal/config"
	"hospital-scheduling-server/internal/logger"
	"hospital-scheduling-server/internal/middleware"
	"hospital-scheduling-server/internal/models"
	"hospital-scheduling-server/internal/repository"
	"hospital-scheduling-server/internal/utils"
)

const refreshCookie = "refresh_token"

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{DB: db, Cfg: cfg}
}

// RegisterRequest represents the request body for patient self-registration.
type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

// Register creates a patient account together with its patient profile.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user := models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      models.RolePatient,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password")
		return
	}

	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		patient := models.Patient{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Status:    models.PatientActive,
		}
		patient.ID = user.ID
		return tx.Create(&patient).Error
	})
	if repository.IsDuplicate(err) {
		utils.Conflict(c, "User with this email already exists")
		return
	}
	if err != nil {
		logger.FromContext(c.Request.Context()).Error().Err(err).Msg("register failed")
		utils.InternalServerError(c, "Failed to create user")
		return
	}

	utils.Created(c, "User registered successfully", user.Sanitize())
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the response body for successful login.
type LoginResponse struct {
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
	User         models.UserSanitized `json:"user"`
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.User
	err := h.DB.WithContext(c.Request.Context()).Where("email = ?", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !user.CheckPassword(req.Password)) {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Database error")
		return
	}

	access, refresh, ok := h.issueTokens(c, h.DB, &user)
	if !ok {
		return
	}
	utils.Success(c, "Login successful", LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user.Sanitize(),
	})
}

// RefreshTokenRequest represents the request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// RefreshTokenResponse represents the response body for successful token refresh.
type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken rotates a refresh token: the presented one is revoked and a
// new pair is issued.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	presented, err := c.Cookie(refreshCookie)
	if err != nil || presented == "" {
		var req RefreshTokenRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}
		presented = req.RefreshToken
	}

	claims, err := utils.ValidateToken(presented, h.Cfg.JWTRefreshSecret)
	if err != nil {
		utils.Unauthorized(c, "Invalid refresh token")
		return
	}

	var (
		access, refresh string
		issued          bool
	)
	err = h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var stored models.RefreshToken
		if err := tx.Where("token = ? AND user_id = ? AND is_revoked = ? AND expires_at > ?",
			presented, claims.UserID, false, time.Now()).First(&stored).Error; err != nil {
			return err
		}
		var user models.User
		if err := tx.First(&user, "id = ?", claims.UserID).Error; err != nil {
			return err
		}
		if err := tx.Model(&stored).Update("is_revoked", true).Error; err != nil {
			return err
		}
		access, refresh, issued = h.issueTokens(c, tx, &user)
		if !issued {
			return errTokensNotIssued
		}
		return nil
	})
	switch {
	case errors.Is(err, errTokensNotIssued):
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.Unauthorized(c, "Refresh token not found, expired, or revoked")
		return
	case err != nil:
		utils.InternalServerError(c, "Database error checking refresh token")
		return
	}

	utils.Success(c, "Access token refreshed successfully", RefreshTokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

var errTokensNotIssued = errors.New("tokens not issued")

// issueTokens signs a token pair, stores the refresh token and sets the
// refresh cookie. On failure it writes the error response.
func (h *AuthHandler) issueTokens(c *gin.Context, db *gorm.DB, user *models.User) (string, string, bool) {
	access, refresh, err := utils.GenerateTokens(user, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate tokens")
		return "", "", false
	}

	ttl := utils.RefreshTTL(h.Cfg)
	stored := models.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := db.WithContext(c.Request.Context()).Create(&stored).Error; err != nil {
		utils.InternalServerError(c, "Failed to store refresh token")
		return "", "", false
	}

	c.SetCookie(refreshCookie, refresh, int(ttl.Seconds()), "/", "", h.Cfg.IsProduction(), true)
	return access, refresh, true
}

// LogoutRequest represents the request body for user logout.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Logout revokes the presented refresh token. Unknown tokens are not an error.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	err := h.DB.WithContext(c.Request.Context()).
		Model(&models.RefreshToken{}).
		Where("token = ? AND is_revoked = ?", req.RefreshToken, false).
		Updates(map[string]interface{}{"is_revoked": true, "expires_at": time.Now()}).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to revoke refresh token")
		return
	}

	c.SetCookie(refreshCookie, "", -1, "/", "", h.Cfg.IsProduction(), true)
	utils.Success(c, "Logout successful. Refresh token has been invalidated.", nil)
}

// GetProfile handles fetching the currently authenticated user's profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User profile not found")
		} else {
			utils.InternalServerError(c, "Database error")
		}
		return
	}

	utils.Success(c, "Profile fetched successfully", user.Sanitize())
}

// UpdateProfileRequest represents the request body for updating the caller's names.
type UpdateProfileRequest struct {
	FirstName string `json:"firstName" validate:"omitempty,max=100"`
	LastName  string `json:"lastName" validate:"omitempty,max=100"`
}

// UpdateProfile renames the caller. Doctor and patient profiles follow.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	var req UpdateProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.User
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		if req.FirstName != "" {
			user.FirstName = req.FirstName
		}
		if req.LastName != "" {
			user.LastName = req.LastName
		}
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		names := map[string]interface{}{"first_name": user.FirstName, "last_name": user.LastName}
		switch user.Role {
		case models.RoleDoctor:
			return tx.Model(&models.Doctor{}).Where("id = ?", user.ID).Updates(names).Error
		case models.RolePatient:
			return tx.Model(&models.Patient{}).Where("id = ?", user.ID).Updates(names).Error
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.NotFound(c, "User not found")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Failed to update profile")
		return
	}
	utils.Success(c, "Profile updated successfully", user.Sanitize())
}
