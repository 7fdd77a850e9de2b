package handlers

import (
	"errors"
	"time"

	"ideahub/internal/db"
	"ideahub/internal/middleware"
	"ideahub/internal/models"
	"ideahub/internal/services"
	"ideahub/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthHandler struct {
	logger *zap.Logger
}

func NewAuthHandler(logger *zap.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

type registerRequest struct {
	Username   string `json:"username" binding:"required,min=3,max=30"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "username, email and a password of at least 8 characters are required")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		Fail(c, services.Unavailable("could not hash password", err))
		return
	}

	user := models.User{
		Username:   req.Username,
		Email:      req.Email,
		Password:   hash,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Department: req.Department,
		Role:       "user",
		IsActive:   true,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Fail(c, services.Conflict("username or email already taken", err))
			return
		}
		Fail(c, services.Unavailable("could not create user", err))
		return
	}

	token, err := middleware.GenerateToken(user.ID)
	if err != nil {
		Fail(c, services.Unavailable("could not issue token", err))
		return
	}

	h.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	Created(c, gin.H{"user": user, "token": token})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "email and password are required")
		return
	}

	var user models.User
	if err := db.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		// Same response for unknown email and wrong password.
		Fail(c, services.Unauthorized("invalid credentials"))
		return
	}
	if !user.IsActive || !utils.CheckPassword(user.Password, req.Password) {
		Fail(c, services.Unauthorized("invalid credentials"))
		return
	}

	token, err := middleware.GenerateToken(user.ID)
	if err != nil {
		Fail(c, services.Unavailable("could not issue token", err))
		return
	}

	now := time.Now()
	db.DB.Model(&user).UpdateColumn("last_login", now)
	user.LastLogin = &now

	OK(c, gin.H{"user": user, "token": token})
}

func (h *AuthHandler) Me(c *gin.Context) {
	OK(c, middleware.CurrentUser(c))
}

type profileRequest struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Avatar     *string `json:"avatar"`
	Department *string `json:"department"`
	Bio        *string `json:"bio"`
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid profile payload")
		return
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if req.Department != nil {
		updates["department"] = *req.Department
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if len(updates) == 0 {
		OK(c, user)
		return
	}

	if err := db.DB.Model(user).Updates(updates).Error; err != nil {
		Fail(c, services.Unavailable("could not update profile", err))
		return
	}
	OK(c, user)
}
