package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chatinsight/chatinsight-go/tool"
)

// HandleStatus returns liveness and the non-sensitive parts of the active
// configuration.
// GET /api/status
func HandleStatus(c *gin.Context) {
	cfg := tool.GetCurrentConfig()
	c.JSON(http.StatusOK, gin.H{
		"running":                true,
		"port":                   cfg.Port,
		"authEnabled":            cfg.JWTSecret != "",
		"analysisTimeoutSeconds": cfg.AnalysisTimeoutSeconds,
	})
}
