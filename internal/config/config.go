package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/erazemk/inventar/internal/auth"
)

// Config is the runtime configuration of the server.
type Config struct {
	DBPath  string
	Addr    string
	LogPath string

	// AdminLogins is the comma-separated admin allowlist.
	AdminLogins string

	Export ExportConfig
	S3     S3Config
}

// ExportConfig controls the CSV export.
type ExportConfig struct {
	YesLabel string
	NoLabel  string
}

// S3Config points snapshot uploads at an S3-compatible bucket. Uploads are
// disabled when Bucket is empty.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	Prefix    string
	PathStyle bool
}

// Load reads environment variables, first loading envFile if given or a
// .env file in the working directory if present.
// Precedence: process environment > env file > default.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	pathStyle, err := parseBool("INVENTAR_S3_PATH_STYLE", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		DBPath:      getenv("INVENTAR_DB", "inventar.sqlite3"),
		Addr:        getenv("INVENTAR_ADDR", ":8080"),
		LogPath:     os.Getenv("INVENTAR_LOG"),
		AdminLogins: getenv("INVENTAR_ADMIN_LOGINS", "admin"),
		Export: ExportConfig{
			YesLabel: getenv("INVENTAR_EXPORT_YES", "Yes"),
			NoLabel:  getenv("INVENTAR_EXPORT_NO", "No"),
		},
		S3: S3Config{
			Bucket:    os.Getenv("INVENTAR_S3_BUCKET"),
			Region:    getenv("INVENTAR_S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("INVENTAR_S3_ENDPOINT"),
			Prefix:    getenv("INVENTAR_S3_PREFIX", "inventory"),
			PathStyle: pathStyle,
		},
	}, nil
}

// Admins returns the parsed admin allowlist.
func (c *Config) Admins() auth.AdminList {
	return auth.ParseAdminList(c.AdminLogins)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for %s: %q", key, v)
	}
	return b, nil
}
