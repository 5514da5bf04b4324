// Package api wires the HTTP surface: upload pipeline, auth, user profile,
// invoices, the price table and the progress websocket.
package api

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chatinsight/chatinsight-go/api/controllers"
	"github.com/chatinsight/chatinsight-go/api/middlewares"
	"github.com/chatinsight/chatinsight-go/api/progresshub"
	"github.com/chatinsight/chatinsight-go/auth"
	"github.com/chatinsight/chatinsight-go/tool"
	"github.com/chatinsight/chatinsight-go/types"
)

// Server is the HTTP API server.
type Server struct {
	cfg     types.AppConfig
	db      *gorm.DB
	authSvc *auth.Service
	hub     *progresshub.Hub
	engine  *gin.Engine
	server  *http.Server
}

// NewServer assembles the server from its collaborators.
func NewServer(cfg types.AppConfig, db *gorm.DB, authSvc *auth.Service) *Server {
	s := &Server{
		cfg:     cfg,
		db:      db,
		authSvc: authSvc,
		hub:     progresshub.New(),
	}
	s.engine = s.setupRoutes()
	return s
}

// Hub exposes the progress hub, mainly for tests.
func (s *Server) Hub() *progresshub.Hub {
	return s.hub
}

// Engine exposes the underlying gin engine, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middlewares.AllowAllCORS())

	uploadCtrl := controllers.NewUploadController(s.db, s.authSvc, s.hub, s.cfg)
	authCtrl := controllers.NewAuthController(s.db, s.authSvc)
	userCtrl := controllers.NewUserController(s.db)
	invoiceCtrl := controllers.NewInvoiceController(s.db)

	requireAuth := s.authSvc.Middleware()

	engine.GET("/api/status", controllers.HandleStatus)

	upload := engine.Group("/api/upload")
	{
		upload.POST("", middlewares.UploadRateLimit(), uploadCtrl.HandleUpload)
		upload.GET("/prices", uploadCtrl.HandlePrices)
		upload.GET("/progress", progresshub.HandleProgressWS(s.hub))
	}

	authGroup := engine.Group("/api/auth")
	{
		authGroup.POST("/register", authCtrl.HandleRegister)
		authGroup.POST("/login", authCtrl.HandleLogin)
		authGroup.GET("/verify", requireAuth, authCtrl.HandleVerify)
	}

	user := engine.Group("/api/user", requireAuth)
	{
		user.GET("/profile", userCtrl.HandleGetProfile)
		user.PUT("/profile", userCtrl.HandleUpdateProfile)
		user.PUT("/password", userCtrl.HandleUpdatePassword)
		user.GET("/stats/history", userCtrl.HandleStatsHistory)
		user.GET("/stats/rank", userCtrl.HandleStatsRank)
	}

	invoices := engine.Group("/api/invoices", requireAuth)
	{
		invoices.POST("", invoiceCtrl.HandleAddInvoices)
		invoices.GET("", invoiceCtrl.HandleGetInvoices)
		invoices.GET("/stats", invoiceCtrl.HandleInvoiceStats)
		invoices.DELETE("/:id", invoiceCtrl.HandleDeleteInvoice)
	}

	return engine
}

// Run starts listening on the configured port and blocks.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.server = &http.Server{Addr: addr, Handler: s.engine}
	tool.DefaultLogger.Infof("[Server] Listening on %s", addr)
	return s.server.ListenAndServe()
}
