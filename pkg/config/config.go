package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	// Identity provider
	TenantID     string
	ClientID     string
	ClientSecret string
	AuthorityURL string

	// Backend endpoints (overridable via config file)
	GraphBaseURL    string
	SecurityBaseURL string
	PlatformBaseURL string

	// Bridged collectors
	PlatformScript   string
	ComplianceScript string
	BridgeTimeout    time.Duration

	// Collection
	CollectTimeout time.Duration
	ReportPeriod   string // usage report window, e.g. D30

	// Storage
	StorageEnabled bool
	DatabaseURL    string

	// Output
	OutputFormat string // text, json
	Verbose      bool
}

// endpointOverrides is the optional YAML config file shape. Only endpoint
// and script locations live here; credentials stay in the environment.
type endpointOverrides struct {
	Authority string `yaml:"authority"`
	Graph     string `yaml:"graph"`
	Security  string `yaml:"security"`
	Platform  string `yaml:"platform"`
	Scripts   struct {
		Platform   string `yaml:"platform"`
		Compliance string `yaml:"compliance"`
	} `yaml:"scripts"`
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	loadDotEnv(".env")

	return &Config{
		TenantID:     os.Getenv("TENANT_ID"),
		ClientID:     os.Getenv("CLIENT_ID"),
		ClientSecret: os.Getenv("CLIENT_SECRET"),
		AuthorityURL: getEnv("AUTHORITY_URL", "https://login.microsoftonline.com"),

		GraphBaseURL:    getEnv("GRAPH_BASE_URL", "https://graph.microsoft.com/v1.0"),
		SecurityBaseURL: getEnv("SECURITY_BASE_URL", "https://api.security.microsoft.com"),
		PlatformBaseURL: getEnv("PLATFORM_BASE_URL", "https://api.bap.microsoft.com"),

		PlatformScript:   getEnv("PLATFORM_SCRIPT", "scripts/collect-platform-data.ps1"),
		ComplianceScript: getEnv("COMPLIANCE_SCRIPT", "scripts/collect-compliance-data.ps1"),
		BridgeTimeout:    getEnvDuration("BRIDGE_TIMEOUT", 10*time.Minute),

		CollectTimeout: getEnvDuration("COLLECT_TIMEOUT", 2*time.Minute),
		ReportPeriod:   getEnv("REPORT_PERIOD", "D30"),

		StorageEnabled: getEnvBool("STORAGE_ENABLED", false),
		DatabaseURL:    getEnv("DATABASE_URL", "host=localhost port=5432 user=readiness password=devpassword dbname=readiness sslmode=disable"),

		OutputFormat: "text",
		Verbose:      false,
	}
}

// LoadOverrides applies endpoint overrides from a YAML file, if present.
// A missing file is not an error.
func (c *Config) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var ov endpointOverrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if ov.Authority != "" {
		c.AuthorityURL = ov.Authority
	}
	if ov.Graph != "" {
		c.GraphBaseURL = ov.Graph
	}
	if ov.Security != "" {
		c.SecurityBaseURL = ov.Security
	}
	if ov.Platform != "" {
		c.PlatformBaseURL = ov.Platform
	}
	if ov.Scripts.Platform != "" {
		c.PlatformScript = ov.Scripts.Platform
	}
	if ov.Scripts.Compliance != "" {
		c.ComplianceScript = ov.Scripts.Compliance
	}
	return nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.TenantID == "" {
		return fmt.Errorf("TENANT_ID must be set")
	}
	if c.StorageEnabled && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set when storage is enabled")
	}
	if c.CollectTimeout < time.Second {
		return fmt.Errorf("collect timeout must be at least 1s")
	}
	if !strings.HasPrefix(c.ReportPeriod, "D") {
		return fmt.Errorf("report period must be of the form D<days>, got %q", c.ReportPeriod)
	}
	return nil
}

// loadDotEnv loads KEY=VALUE pairs from a .env file into the environment.
// Variables already present in the environment win.
func loadDotEnv(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if os.Getenv(key) == "" {
			os.Setenv(key, strings.TrimSpace(value))
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
