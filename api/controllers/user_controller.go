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

// UserController serves profile and usage history endpoints. All routes sit
// behind the auth middleware.
type UserController struct {
	db *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

// HandleGetProfile processes GET /api/user/profile.
func (ctrl *UserController) HandleGetProfile(c *gin.Context) {
	userID, _ := auth.UserIDFromContext(c)
	user, err := store.UserByID(ctrl.db, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, tool.FastReturnError("user not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"full_name":  user.FullName,
		"created_at": user.CreatedAt,
	})
}

// HandleUpdateProfile processes PUT /api/user/profile.
func (ctrl *UserController) HandleUpdateProfile(c *gin.Context) {
	userID, _ := auth.UserIDFromContext(c)
	var req types.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("invalid request body"))
		return
	}
	if req.Email == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("email is required"))
		return
	}
	if err := store.UpdateUserProfile(ctrl.db, userID, req.Email, req.FullName); err != nil {
		tool.DefaultLogger.Errorf("[User] Profile update failed: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("failed to update profile"))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// HandleUpdatePassword processes PUT /api/user/password.
func (ctrl *UserController) HandleUpdatePassword(c *gin.Context) {
	userID, _ := auth.UserIDFromContext(c)
	var req types.PasswordUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("invalid request body"))
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("password must be at least 8 characters"))
		return
	}

	user, err := store.UserByID(ctrl.db, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, tool.FastReturnError("user not found"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, tool.FastReturnError("current password is incorrect"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		tool.DefaultLogger.Errorf("[User] Hashing failed: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("failed to update password"))
		return
	}
	if err := store.UpdateUserPassword(ctrl.db, userID, string(hashed)); err != nil {
		tool.DefaultLogger.Errorf("[User] Password update failed: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("failed to update password"))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// HandleStatsHistory processes GET /api/user/stats/history.
func (ctrl *UserController) HandleStatsHistory(c *gin.Context) {
	userID, _ := auth.UserIDFromContext(c)
	snapshots, err := store.SnapshotsByUser(ctrl.db, userID)
	if err != nil {
		tool.DefaultLogger.Errorf("[User] Stats history failed: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("failed to load stats history"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": snapshots})
}

// HandleStatsRank processes GET /api/user/stats/rank.
func (ctrl *UserController) HandleStatsRank(c *gin.Context) {
	userID, _ := auth.UserIDFromContext(c)
	rank, total, err := store.UserRank(ctrl.db, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		tool.DefaultLogger.Errorf("[User] Rank lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("failed to compute rank"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"rank": rank, "totalUsers": total})
}
