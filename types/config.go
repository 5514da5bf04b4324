package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	Port                   int    `yaml:"port"`
	UploadFolder           string `yaml:"uploadFolder"`
	PythonBinary           string `yaml:"pythonBinary"`
	AnalysisScript         string `yaml:"analysisScript"`
	PriceFile              string `yaml:"priceFile"`
	AnalysisTimeoutSeconds int    `yaml:"analysisTimeoutSeconds"`
	JWTSecret              string `yaml:"jwtSecret"`
	DatabasePath           string `yaml:"databasePath"`
	SweepSchedule          string `yaml:"sweepSchedule"`
	SweepMaxAgeMinutes     int    `yaml:"sweepMaxAgeMinutes"`
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log               string
	UseConfigPath     string
	UsePort           int
	UseUploadFolder   string
	UseDatabasePath   string
	UsePythonBinary   string
	UseAnalysisScript string
}
