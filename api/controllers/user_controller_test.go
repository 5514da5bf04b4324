package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/chatinsight/chatinsight-go/auth"
	"github.com/chatinsight/chatinsight-go/store"
	"github.com/chatinsight/chatinsight-go/types"
)

type userFixture struct {
	router *gin.Engine
	db     *gorm.DB
	token  string
	userID uint
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	authSvc := auth.NewService("user-test-secret")

	hashed, err := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatal(err)
	}
	user := &store.User{Email: "profile@b.com", Password: string(hashed), FullName: "Profile User"}
	if err := store.CreateUser(db, user); err != nil {
		t.Fatal(err)
	}
	token, err := authSvc.IssueToken(user.ID, user.Email)
	if err != nil {
		t.Fatal(err)
	}

	ctrl := NewUserController(db)
	router := gin.New()
	group := router.Group("/api/user", authSvc.Middleware())
	group.GET("/profile", ctrl.HandleGetProfile)
	group.PUT("/profile", ctrl.HandleUpdateProfile)
	group.PUT("/password", ctrl.HandleUpdatePassword)
	group.GET("/stats/history", ctrl.HandleStatsHistory)
	group.GET("/stats/rank", ctrl.HandleStatsRank)

	return &userFixture{router: router, db: db, token: token, userID: user.ID}
}

func (f *userFixture) do(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestGetAndUpdateProfile(t *testing.T) {
	f := newUserFixture(t)

	w := f.do(t, http.MethodGet, "/api/user/profile", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var profile map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &profile); err != nil {
		t.Fatal(err)
	}
	if profile["email"] != "profile@b.com" {
		t.Errorf("profile = %v", profile)
	}

	w = f.do(t, http.MethodPut, "/api/user/profile", types.ProfileUpdateRequest{Email: "renamed@b.com", FullName: "Renamed"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	user, err := store.UserByID(f.db, f.userID)
	if err != nil {
		t.Fatal(err)
	}
	if user.Email != "renamed@b.com" || user.FullName != "Renamed" {
		t.Errorf("profile update not applied: %+v", user)
	}
}

func TestUpdatePassword(t *testing.T) {
	f := newUserFixture(t)

	w := f.do(t, http.MethodPut, "/api/user/password", types.PasswordUpdateRequest{
		CurrentPassword: "wrong", NewPassword: "brandnewpass",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong current password status = %d", w.Code)
	}

	w = f.do(t, http.MethodPut, "/api/user/password", types.PasswordUpdateRequest{
		CurrentPassword: "oldpassword", NewPassword: "brandnewpass",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	user, _ := store.UserByID(f.db, f.userID)
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("brandnewpass")); err != nil {
		t.Error("new password hash does not verify")
	}
}

func TestStatsHistoryAndRank(t *testing.T) {
	f := newUserFixture(t)
	for _, cost := range []float64{1.5, 3.0} {
		if err := store.InsertSnapshot(f.db, &store.UsageSnapshot{UserID: f.userID, TotalCost: cost}); err != nil {
			t.Fatal(err)
		}
	}

	w := f.do(t, http.MethodGet, "/api/user/stats/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d", w.Code)
	}
	var history struct {
		History []store.UsageSnapshot `json:"history"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &history); err != nil {
		t.Fatal(err)
	}
	if len(history.History) != 2 || history.History[0].TotalCost != 3.0 {
		t.Errorf("history = %+v", history.History)
	}

	w = f.do(t, http.MethodGet, "/api/user/stats/rank", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rank status = %d", w.Code)
	}
	var rank map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &rank); err != nil {
		t.Fatal(err)
	}
	if rank["rank"] != 1 || rank["totalUsers"] != 1 {
		t.Errorf("rank = %v", rank)
	}
}
