package main

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/chatinsight/chatinsight-go/api"
	"github.com/chatinsight/chatinsight-go/auth"
	"github.com/chatinsight/chatinsight-go/store"
	"github.com/chatinsight/chatinsight-go/tool"
)

func main() {
	cfg := tool.SetFlags()
	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	if cfg.UsePort > 0 {
		appCfg.Port = cfg.UsePort
	}
	if cfg.UseUploadFolder != "" {
		appCfg.UploadFolder = cfg.UseUploadFolder
	}
	if cfg.UseDatabasePath != "" {
		appCfg.DatabasePath = cfg.UseDatabasePath
	}
	if cfg.UsePythonBinary != "" {
		appCfg.PythonBinary = cfg.UsePythonBinary
	}
	if cfg.UseAnalysisScript != "" {
		appCfg.AnalysisScript = cfg.UseAnalysisScript
	}

	tool.InitLogger()
	if cfg.Log == "dev" {
		tool.DefaultLogger.SetLevel(log.DebugLevel)
	}

	if err := tool.EnsureUploadRoot(appCfg.UploadFolder); err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}

	db, err := store.Open(appCfg.DatabasePath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}

	if appCfg.JWTSecret == "" {
		tool.DefaultLogger.Warnf("No JWT secret configured: uploads run anonymously, authenticated routes stay locked")
	}
	authSvc := auth.NewService(appCfg.JWTSecret)

	sweeper, err := tool.StartSweeper(appCfg.UploadFolder, appCfg.SweepSchedule,
		time.Duration(appCfg.SweepMaxAgeMinutes)*time.Minute)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	defer sweeper.Stop()

	server := api.NewServer(appCfg, db, authSvc)
	if err := server.Run(); err != nil {
		tool.DefaultLogger.Fatalf("server stopped: %v", err)
	}
}
