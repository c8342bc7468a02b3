package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	FetchModeGit     = "git"
	FetchModeArchive = "archive"
)

type Config struct {
	DBPath     string
	ResultPath string
	OutputDir  string
	LogLevel   string

	ChainsRepo      string
	ChainsRef       string
	ChainsLocalPath string
	ChainsDataDir   string

	FetchMode            string
	GitHubBaseURL        string
	GitHubArchiveBaseURL string
	GitHubToken          string
	FetchTimeoutMs       int
	FetchRateLimitRPS    int
	FetchMaxAttempts     int
	FetchStaleHours      int

	ParseConcurrency int
	SortOrder        string

	RefreshIntervalSec int
	RefreshAutoExport  bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	repo := getEnv("CHAINS_REPO", "ethereum-lists/chains")
	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "chainlist.db")),
		ResultPath: getEnv("RESULT_PATH", filepath.Join(cwd, "result.txt")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		ChainsRepo:      repo,
		ChainsRef:       getEnv("CHAINS_REF", "master"),
		ChainsLocalPath: getEnv("CHAINS_LOCAL_PATH", filepath.Join(cwd, "sources", filepath.FromSlash(repo))),
		ChainsDataDir:   getEnv("CHAINS_DATA_SUBDIR", filepath.Join("_data", "chains")),

		FetchMode:            strings.ToLower(strings.TrimSpace(getEnv("FETCH_MODE", FetchModeGit))),
		GitHubBaseURL:        getEnv("GITHUB_BASE_URL", "https://github.com"),
		GitHubArchiveBaseURL: getEnv("GITHUB_ARCHIVE_BASE_URL", "https://codeload.github.com"),
		GitHubToken:          getEnv("GITHUB_TOKEN", ""),
		FetchTimeoutMs:       getEnvInt("FETCH_TIMEOUT_MS", 120000),
		FetchRateLimitRPS:    getEnvInt("FETCH_RATE_LIMIT_RPS", 2),
		FetchMaxAttempts:     getEnvInt("FETCH_MAX_ATTEMPTS", 5),
		FetchStaleHours:      getEnvInt("FETCH_STALE_HOURS", 24),

		ParseConcurrency: getEnvInt("PARSE_CONCURRENCY", 32),
		SortOrder:        strings.ToLower(strings.TrimSpace(getEnv("SORT_ORDER", "none"))),

		RefreshIntervalSec: getEnvInt("REFRESH_INTERVAL_SEC", 3600),
		RefreshAutoExport:  getEnvBool("REFRESH_AUTO_EXPORT", true),
	}

	return cfg, nil
}

// DataDir is the directory holding one descriptor file per network.
func (c Config) DataDir() string {
	return filepath.Join(c.ChainsLocalPath, c.ChainsDataDir)
}

func (c Config) Validate() error {
	switch c.FetchMode {
	case FetchModeGit, FetchModeArchive:
	default:
		return fmt.Errorf("unsupported FETCH_MODE: %s", c.FetchMode)
	}
	switch c.SortOrder {
	case "none", "id", "name":
	default:
		return fmt.Errorf("unsupported SORT_ORDER: %s", c.SortOrder)
	}
	if err := c.Require("CHAINS_REPO", c.ChainsRepo); err != nil {
		return err
	}
	return c.Require("CHAINS_LOCAL_PATH", c.ChainsLocalPath)
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
