package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/chatinsight/chatinsight-go/auth"
	"github.com/chatinsight/chatinsight-go/store"
	"github.com/chatinsight/chatinsight-go/tool"
	"github.com/chatinsight/chatinsight-go/types"
)

const minPasswordLength = 8

// AuthController handles registration, login and token verification.
type AuthController struct {
	db      *gorm.DB
	authSvc *auth.Service
}

func NewAuthController(db *gorm.DB, authSvc *auth.Service) *AuthController {
	return &AuthController{db: db, authSvc: authSvc}
}

// HandleRegister processes POST /api/auth/register.
func (ctrl *AuthController) HandleRegister(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("invalid request body"))
		return
	}
	if req.Email == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("email is required"))
		return
	}
	if len(req.Password) < minPasswordLength {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("password must be at least 8 characters"))
		return
	}

	if _, err := store.UserByEmail(ctrl.db, req.Email); err == nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("this email is already in use"))
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		tool.DefaultLogger.Errorf("[Auth] Register lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("registration failed"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		tool.DefaultLogger.Errorf("[Auth] Hashing failed: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("registration failed"))
		return
	}

	user := &store.User{Email: req.Email, Password: string(hashed), FullName: req.FullName}
	if err := store.CreateUser(ctrl.db, user); err != nil {
		tool.DefaultLogger.Errorf("[Auth] Create user failed: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("registration failed"))
		return
	}

	token, err := ctrl.authSvc.IssueToken(user.ID, user.Email)
	if err != nil {
		tool.DefaultLogger.Errorf("[Auth] Token issue failed: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("registration failed"))
		return
	}
	c.JSON(http.StatusOK, types.AuthResponse{Token: token, UserID: user.ID})
}

// HandleLogin processes POST /api/auth/login.
func (ctrl *AuthController) HandleLogin(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("invalid request body"))
		return
	}

	user, err := store.UserByEmail(ctrl.db, req.Email)
	if err != nil {
		// Same message for unknown email and wrong password.
		c.JSON(http.StatusUnauthorized, tool.FastReturnError("incorrect email or password"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, tool.FastReturnError("incorrect email or password"))
		return
	}

	token, err := ctrl.authSvc.IssueToken(user.ID, user.Email)
	if err != nil {
		tool.DefaultLogger.Errorf("[Auth] Token issue failed: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("login failed"))
		return
	}
	c.JSON(http.StatusOK, types.AuthResponse{Token: token, UserID: user.ID})
}

// HandleVerify processes GET /api/auth/verify behind the auth middleware.
func (ctrl *AuthController) HandleVerify(c *gin.Context) {
	userID, _ := auth.UserIDFromContext(c)
	email, _ := auth.EmailFromContext(c)
	c.JSON(http.StatusOK, gin.H{"valid": true, "userId": userID, "email": email})
}
