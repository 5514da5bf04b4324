package controllers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chatinsight/chatinsight-go/analysis"
	"github.com/chatinsight/chatinsight-go/api/progresshub"
	"github.com/chatinsight/chatinsight-go/archive"
	"github.com/chatinsight/chatinsight-go/auth"
	"github.com/chatinsight/chatinsight-go/store"
	"github.com/chatinsight/chatinsight-go/tool"
	"github.com/chatinsight/chatinsight-go/types"
)

// UploadController runs the export ingestion pipeline: store the archive,
// extract it, validate its contents, run the analysis script, assemble the
// response and always clean the session workspace up.
type UploadController struct {
	db         *gorm.DB
	authSvc    *auth.Service
	hub        *progresshub.Hub
	uploadRoot string
	priceFile  string
	invoker    *analysis.Invoker
}

func NewUploadController(db *gorm.DB, authSvc *auth.Service, hub *progresshub.Hub, cfg types.AppConfig) *UploadController {
	return &UploadController{
		db:         db,
		authSvc:    authSvc,
		hub:        hub,
		uploadRoot: cfg.UploadFolder,
		priceFile:  cfg.PriceFile,
		// The subprocess runs with its cwd set to the script directory, so
		// every path handed to it must be absolute.
		invoker: &analysis.Invoker{
			PythonBinary: cfg.PythonBinary,
			ScriptPath:   absPath(cfg.AnalysisScript),
			PriceFile:    absPath(cfg.PriceFile),
			Timeout:      secondsToDuration(cfg.AnalysisTimeoutSeconds),
		},
	}
}

// HandleUpload processes POST /api/upload.
func (ctrl *UploadController) HandleUpload(c *gin.Context) {
	file, err := c.FormFile("zipfile")
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("no file received"))
		return
	}

	// An invalid token never blocks the upload, it only skips persistence.
	userID, authenticated := ctrl.authSvc.OptionalUserID(c)
	if !authenticated && c.GetHeader("Authorization") != "" {
		tool.DefaultLogger.Warnf("[Upload] Invalid bearer token provided, continuing anonymously")
	}

	requested := c.PostForm("session")
	sessionID := sanitizeSessionID(requested)
	if requested != "" && sessionID != requested {
		tool.DefaultLogger.Warnf("[Upload] Malformed session id rejected, using %s", sessionID)
	}
	tool.DefaultLogger.Infof("[Upload] Received archive %s (session %s)", file.Filename, sessionID)

	archivePath := filepath.Join(ctrl.uploadRoot, "upload_"+sessionID+".zip")
	if err := c.SaveUploadedFile(file, archivePath); err != nil {
		tool.DefaultLogger.Errorf("[Upload] Failed to store archive: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("failed to store uploaded file"))
		return
	}

	workDir, err := tool.NewWorkDir(ctrl.uploadRoot, sessionID)
	if err != nil {
		tool.DefaultLogger.Errorf("[Upload] %v", err)
		tool.CleanupSession("", archivePath)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("failed to prepare workspace"))
		return
	}
	// Every exit path below goes through the reaper exactly once.
	defer tool.CleanupSession(workDir, archivePath)

	result, err := ctrl.runPipeline(c, sessionID, archivePath, workDir, userID, authenticated)
	if err != nil {
		status, msg := pipelineErrorResponse(err)
		tool.DefaultLogger.Errorf("[Upload] Session %s failed: %v", sessionID, err)
		c.JSON(status, tool.FastReturnErrorWithData(msg, map[string]any{"session": sessionID}))
		return
	}

	tool.DefaultLogger.Infof("[Upload] Session %s completed: %d conversations", sessionID, result.Stats.TotalConversations)
	c.JSON(http.StatusOK, result)
}

// runPipeline executes extraction through assembly for one session. The
// caller owns workspace cleanup.
func (ctrl *UploadController) runPipeline(c *gin.Context, sessionID, archivePath, workDir string, userID uint, authenticated bool) (*types.UploadResult, error) {
	if err := archive.ExtractZip(archivePath, workDir); err != nil {
		return nil, err
	}
	tool.DefaultLogger.Infof("[Upload] Extracted archive into %s", workDir)

	email, err := analysis.ValidateManifest(workDir)
	if err != nil {
		return nil, err
	}
	tool.DefaultLogger.Infof("[Upload] Export belongs to %s", email)

	conversationPath, err := analysis.LocateConversations(workDir)
	if err != nil {
		return nil, err
	}

	conversationPath = absPath(conversationPath)
	structuredOut := absPath(filepath.Join(workDir, analysis.StructuredArtifact))
	statsOut := absPath(filepath.Join(workDir, analysis.StatsArtifact))

	onProgress := func(pct float64, desc string) {
		ctrl.hub.Publish(types.ProgressUpdate{
			SessionID:   sessionID,
			Percentage:  pct,
			Description: desc,
		})
	}
	if err := ctrl.invoker.Run(c.Request.Context(), conversationPath, structuredOut, statsOut, onProgress); err != nil {
		return nil, err
	}
	if err := analysis.CheckArtifacts(structuredOut, statsOut); err != nil {
		return nil, err
	}

	result, err := analysis.Assemble(sessionID, structuredOut, statsOut)
	if err != nil {
		return nil, err
	}

	if authenticated {
		ctrl.persistSnapshot(userID, result)
	}
	return result, nil
}

// persistSnapshot records the analysis for an authenticated user. Failures
// are logged and swallowed: the caller already holds a valid result.
func (ctrl *UploadController) persistSnapshot(userID uint, result *types.UploadResult) {
	snapshot := &store.UsageSnapshot{
		UserID:                      userID,
		TotalConversations:          result.Stats.TotalConversations,
		TotalWords:                  result.Stats.TotalWords,
		TotalInputTokens:            result.Stats.TotalInputTokens,
		TotalOutputTokens:           result.Stats.TotalOutputTokens,
		TotalMessages:               analysis.TotalMessages(result.Details),
		AverageWordsPerConversation: result.Stats.AverageWordsPerConversation,
		TotalCost:                   result.Stats.TotalCost,
	}
	if err := store.InsertSnapshot(ctrl.db, snapshot); err != nil {
		tool.DefaultLogger.Errorf("[Upload] Failed to persist usage snapshot for user %d: %v", userID, err)
	}
}

// pipelineErrorResponse maps a pipeline error to an HTTP status and a
// client-safe message. Subprocess diagnostics never leak to the client.
func pipelineErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, archive.ErrUnsafeEntry):
		return http.StatusBadRequest, archive.ErrUnsafeEntry.Error()
	case errors.Is(err, archive.ErrNotZip):
		return http.StatusInternalServerError, archive.ErrNotZip.Error()
	case errors.Is(err, analysis.ErrMissingManifest):
		return http.StatusBadRequest, analysis.ErrMissingManifest.Error()
	case errors.Is(err, analysis.ErrInvalidManifest):
		return http.StatusBadRequest, analysis.ErrInvalidManifest.Error()
	case errors.Is(err, analysis.ErrMissingConversations):
		return http.StatusBadRequest, analysis.ErrMissingConversations.Error()
	case errors.Is(err, analysis.ErrAnalysisFailed):
		return http.StatusInternalServerError, analysis.ErrAnalysisFailed.Error()
	case errors.Is(err, analysis.ErrIncompleteOutput):
		return http.StatusInternalServerError, analysis.ErrIncompleteOutput.Error()
	case errors.Is(err, analysis.ErrMalformedOutput):
		return http.StatusInternalServerError, analysis.ErrMalformedOutput.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// HandlePrices serves GET /api/upload/prices from the static pricing table.
func (ctrl *UploadController) HandlePrices(c *gin.Context) {
	data, err := os.ReadFile(ctrl.priceFile)
	if err != nil {
		tool.DefaultLogger.Errorf("[Prices] Failed to read price file %s: %v", ctrl.priceFile, err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("failed to load price table"))
		return
	}
	var prices any
	if err := sonic.Unmarshal(data, &prices); err != nil {
		tool.DefaultLogger.Errorf("[Prices] Price file is not valid JSON: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("failed to load price table"))
		return
	}
	c.JSON(http.StatusOK, prices)
}

// The session id names the archive and the work dir on disk, so only a
// conservative token shape is accepted from clients. Anything else, including
// path separators and dots, is replaced with a generated id.
var sessionIDRe = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

func sanitizeSessionID(id string) string {
	if sessionIDRe.MatchString(id) {
		return id
	}
	return uuid.NewString()
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
