// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-onedatafs.
//
// go-onedatafs is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-onedatafs/pkg/adapters"
	"github.com/jeremyhahn/go-onedatafs/pkg/onedata"
)

// Config holds the CLI configuration settings.
type Config struct {
	ZoneHost     string
	Token        string
	TokenFile    string
	Space        string
	Insecure     bool
	CACertFile   string
	Timeout      int // seconds
	PageLimit    int
	MaxRetries   int
	OutputFormat string
	Verbose      bool
}

// InitConfig initializes the configuration using Viper.
// Configuration priority: flags > env vars > config file > defaults.
func InitConfig(cfgFile string) (*viper.Viper, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("timeout", 30)
	v.SetDefault("page-limit", 1000)
	v.SetDefault("max-retries", 3)
	v.SetDefault("output-format", "text")

	// Set config file search paths
	if cfgFile != "" {
		// Use config file from the flag if provided
		v.SetConfigFile(cfgFile)
	} else {
		// Search for config in home directory and current directory
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".onedatafs")
		v.SetConfigType("yaml")
	}

	// Bind environment variables, e.g. ONEDATAFS_ZONE_HOST
	v.SetEnvPrefix("ONEDATAFS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return v, nil
}

// GetConfig extracts the configuration from Viper into a Config struct.
func GetConfig(v *viper.Viper) *Config {
	return &Config{
		ZoneHost:     v.GetString("zone-host"),
		Token:        v.GetString("token"),
		TokenFile:    v.GetString("token-file"),
		Space:        v.GetString("space"),
		Insecure:     v.GetBool("insecure"),
		CACertFile:   v.GetString("ca-cert"),
		Timeout:      v.GetInt("timeout"),
		PageLimit:    v.GetInt("page-limit"),
		MaxRetries:   v.GetInt("max-retries"),
		OutputFormat: v.GetString("output-format"),
		Verbose:      v.GetBool("verbose"),
	}
}

// ValidateConfig validates the configuration.
func ValidateConfig(cfg *Config) error {
	if cfg.ZoneHost == "" {
		return ErrZoneHostRequired
	}
	if cfg.Token == "" && cfg.TokenFile == "" {
		return ErrTokenRequired
	}

	// Validate output format
	if cfg.OutputFormat != "text" && cfg.OutputFormat != "json" && cfg.OutputFormat != "table" {
		return ErrUnsupportedOutputFormat
	}

	return nil
}

// ClientConfig converts the CLI configuration into a REST client
// configuration. A token file is wired as a provider so rotated tokens
// are picked up without restarting.
func (c *Config) ClientConfig() (*onedata.Config, error) {
	clientConfig := &onedata.Config{
		ZoneHost:   c.ZoneHost,
		Token:      c.Token,
		Timeout:    time.Duration(c.Timeout) * time.Second,
		Insecure:   c.Insecure,
		PageLimit:  c.PageLimit,
		MaxRetries: c.MaxRetries,
	}

	if c.TokenFile != "" {
		clientConfig.TokenProvider = adapters.NewFileTokenProvider(c.TokenFile)
	}

	if c.CACertFile != "" {
		pem, err := os.ReadFile(c.CACertFile) // #nosec G304 -- User-provided path for CLI file operations, intended behavior
		if err != nil {
			return nil, err
		}
		clientConfig.CACertPEM = pem
	}

	if c.Verbose {
		logger := adapters.NewDefaultLogger()
		logger.SetLevel(adapters.DebugLevel)
		clientConfig.Logger = logger
	}

	return clientConfig, nil
}

// DisplayConfig formats and displays the current configuration.
func DisplayConfig(cfg *Config, format string) string {
	switch format {
	case string(FormatJSON):
		return formatConfigJSON(cfg)
	case "table":
		return formatConfigTable(cfg)
	default:
		return formatConfigText(cfg)
	}
}

func formatConfigText(cfg *Config) string {
	var result string
	result += fmt.Sprintf("Zone Host: %s\n", cfg.ZoneHost)
	if cfg.Token != "" {
		result += fmt.Sprintf("Token: %s\n", maskSecret(cfg.Token))
	}
	if cfg.TokenFile != "" {
		result += fmt.Sprintf("Token File: %s\n", cfg.TokenFile)
	}
	if cfg.Space != "" {
		result += fmt.Sprintf("Space: %s\n", cfg.Space)
	}
	if cfg.Insecure {
		result += "Insecure: true\n"
	}
	if cfg.CACertFile != "" {
		result += fmt.Sprintf("CA Certificate: %s\n", cfg.CACertFile)
	}
	result += fmt.Sprintf("Timeout: %ds\n", cfg.Timeout)
	result += fmt.Sprintf("Page Limit: %d\n", cfg.PageLimit)
	result += fmt.Sprintf("Max Retries: %d\n", cfg.MaxRetries)
	result += fmt.Sprintf("Output Format: %s\n", cfg.OutputFormat)
	return result
}

func formatConfigTable(cfg *Config) string {
	var result string
	result += "┌──────────────────┬────────────────────────────────────────┐\n"
	result += "│ Setting          │ Value                                  │\n"
	result += "├──────────────────┼────────────────────────────────────────┤\n"
	result += fmt.Sprintf("│ %-16s │ %-38s │\n", "Zone Host", truncate(cfg.ZoneHost, 38))
	if cfg.Token != "" {
		result += fmt.Sprintf("│ %-16s │ %-38s │\n", "Token", maskSecret(cfg.Token))
	}
	if cfg.TokenFile != "" {
		result += fmt.Sprintf("│ %-16s │ %-38s │\n", "Token File", truncate(cfg.TokenFile, 38))
	}
	if cfg.Space != "" {
		result += fmt.Sprintf("│ %-16s │ %-38s │\n", "Space", truncate(cfg.Space, 38))
	}
	if cfg.Insecure {
		result += fmt.Sprintf("│ %-16s │ %-38s │\n", "Insecure", "true")
	}
	if cfg.CACertFile != "" {
		result += fmt.Sprintf("│ %-16s │ %-38s │\n", "CA Certificate", truncate(cfg.CACertFile, 38))
	}
	result += fmt.Sprintf("│ %-16s │ %-38s │\n", "Timeout", fmt.Sprintf("%ds", cfg.Timeout))
	result += fmt.Sprintf("│ %-16s │ %-38d │\n", "Page Limit", cfg.PageLimit)
	result += fmt.Sprintf("│ %-16s │ %-38d │\n", "Max Retries", cfg.MaxRetries)
	result += fmt.Sprintf("│ %-16s │ %-38s │\n", "Output Format", cfg.OutputFormat)
	result += "└──────────────────┴────────────────────────────────────────┘\n"
	return result
}

func formatConfigJSON(cfg *Config) string {
	result := "{\n"
	result += fmt.Sprintf("  \"zone_host\": %q,\n", cfg.ZoneHost)
	if cfg.Token != "" {
		result += fmt.Sprintf("  \"token\": %q,\n", maskSecret(cfg.Token))
	}
	if cfg.TokenFile != "" {
		result += fmt.Sprintf("  \"token_file\": %q,\n", cfg.TokenFile)
	}
	if cfg.Space != "" {
		result += fmt.Sprintf("  \"space\": %q,\n", cfg.Space)
	}
	result += fmt.Sprintf("  \"insecure\": %v,\n", cfg.Insecure)
	if cfg.CACertFile != "" {
		result += fmt.Sprintf("  \"ca_cert\": %q,\n", cfg.CACertFile)
	}
	result += fmt.Sprintf("  \"timeout\": %d,\n", cfg.Timeout)
	result += fmt.Sprintf("  \"page_limit\": %d,\n", cfg.PageLimit)
	result += fmt.Sprintf("  \"max_retries\": %d,\n", cfg.MaxRetries)
	result += fmt.Sprintf("  \"output_format\": %q\n", cfg.OutputFormat)
	result += "}\n"
	return result
}

// maskSecret masks sensitive information, showing only first 4 characters.
func maskSecret(s string) string {
	if len(s) < 5 {
		return "****"
	}
	return s[:4] + "****"
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
