package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"INVENTAR_DB", "INVENTAR_ADDR", "INVENTAR_ADMIN_LOGINS", "INVENTAR_S3_BUCKET", "INVENTAR_S3_PATH_STYLE"} {
		t.Setenv(k, "")
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "inventar.sqlite3" {
		t.Errorf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("expected default addr, got %q", cfg.Addr)
	}
	if !cfg.Admins().IsAdmin("admin") {
		t.Error("expected 'admin' to be an admin by default")
	}
	if cfg.S3.Bucket != "" {
		t.Errorf("expected uploads disabled, got bucket %q", cfg.S3.Bucket)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := "INVENTAR_ADMIN_LOGINS=coach,director\nINVENTAR_S3_BUCKET=snapshots\nINVENTAR_S3_PATH_STYLE=true\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are already set, so start clean.
	for _, k := range []string{"INVENTAR_ADMIN_LOGINS", "INVENTAR_S3_BUCKET", "INVENTAR_S3_PATH_STYLE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	admins := cfg.Admins()
	if !admins.IsAdmin("coach") || !admins.IsAdmin("director") || admins.IsAdmin("admin") {
		t.Errorf("unexpected admin list: %v", admins)
	}
	if cfg.S3.Bucket != "snapshots" || !cfg.S3.PathStyle {
		t.Errorf("unexpected s3 config: %+v", cfg.S3)
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for missing explicit env file")
	}
}

func TestLoadInvalidBool(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("INVENTAR_S3_PATH_STYLE", "maybe")

	if _, err := Load(""); err == nil {
		t.Error("expected error for invalid boolean")
	}
}
