package tool

import (
	"flag"

	"github.com/chatinsight/chatinsight-go/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.IntVar(&cfg.UsePort, "usePort", 0, "override listen port")
	flag.StringVar(&cfg.UseUploadFolder, "useUploadFolder", "", "override uploads root folder")
	flag.StringVar(&cfg.UseDatabasePath, "useDatabasePath", "", "override sqlite database path")
	flag.StringVar(&cfg.UsePythonBinary, "usePythonBinary", "", "override python binary used for analysis")
	flag.StringVar(&cfg.UseAnalysisScript, "useAnalysisScript", "", "override analysis script path")
	flag.Parse()
	return cfg
}
