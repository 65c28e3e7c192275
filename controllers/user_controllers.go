package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/repository"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

var errInvalidCredentials = errors.New("invalid credentials")

type UserController struct {
	Users  repository.UserRepository
	Orders *services.OrderService
}

func NewUserController(users repository.UserRepository, orders *services.OrderService) *UserController {
	return &UserController{Users: users, Orders: orders}
}

// Register creates a customer account.
func (uc *UserController) Register(c *gin.Context) {
	var req struct {
		Username    string `json:"username" binding:"required,min=3,max=100"`
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required,min=6"`
		FullName    string `json:"full_name" binding:"max=255"`
		PhoneNumber string `json:"phone_number" binding:"max=20"`
		Address     string `json:"address" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	user := models.User{
		Username:    strings.TrimSpace(req.Username),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Password:    string(hashed),
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Role:        models.RoleCustomer,
	}
	if err := uc.Users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			utils.RespondError(c, http.StatusConflict, err)
			return
		}
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("New user registered: %s", user.Username)
	utils.RespondJSON(c, http.StatusCreated, "User registered", gin.H{"user_id": user.ID})
}

// Login exchanges a username or email plus password for a JWT.
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Login    string `json:"login" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	user, err := uc.Users.FindByLogin(c.Request.Context(), input.Login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			utils.RespondError(c, http.StatusUnauthorized, errInvalidCredentials)
			return
		}
		respondServiceError(c, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errInvalidCredentials)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("Login successful for user: %s", user.Username)
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":    token,
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
}

// GetProfile returns the caller's account together with their order count.
func (uc *UserController) GetProfile(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	user, err := uc.Users.FindByID(c.Request.Context(), principal.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			utils.RespondError(c, http.StatusNotFound, err)
			return
		}
		respondServiceError(c, err)
		return
	}
	total, err := uc.Orders.CountOwnOrders(c.Request.Context(), principal)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Profile", gin.H{
		"user":         user,
		"total_orders": total,
	})
}
