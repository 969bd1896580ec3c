package handlers

import (
	"strings"

	"github.com/Metalzoid/mon-view-grimoire-backend/internal/models"
	"github.com/Metalzoid/mon-view-grimoire-backend/pkg/logger"
	"github.com/Metalzoid/mon-view-grimoire-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{DB: db}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "email and password are required")
	}

	var existing models.User
	if err := h.DB.First(&existing, "email = ?", email).Error; err == nil {
		return utils.Error(c, fiber.StatusBadRequest, "email already in use")
	} else if err != gorm.ErrRecordNotFound {
		return utils.Error(c, fiber.StatusBadRequest, "failed checking email")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "failed hashing password")
	}

	user := models.User{Email: email, PasswordHash: hash}
	if err := h.DB.Create(&user).Error; err != nil {
		// The unique index still backstops a concurrent signup with the
		// same email.
		return utils.Error(c, fiber.StatusBadRequest, "email already in use")
	}

	logger.Info("user_signed_up", map[string]interface{}{"user_id": user.ID.String()})

	return utils.Message(c, fiber.StatusCreated, "User created!")
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.DB.First(&user, "email = ?", strings.TrimSpace(req.Email)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusUnauthorized, "incorrect email or password")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching user")
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		logger.Warn("login_failed", map[string]interface{}{"ip": c.IP()})
		return utils.Error(c, fiber.StatusUnauthorized, "incorrect email or password")
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	logger.InfoWithUser(user.ID.String(), "user_logged_in", nil)

	return utils.JSON(c, fiber.StatusOK, fiber.Map{
		"userId": user.ID.String(),
		"token":  token,
	})
}
