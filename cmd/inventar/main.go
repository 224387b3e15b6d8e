package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/inventar/internal/api"
	"github.com/erazemk/inventar/internal/config"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/export"
	"github.com/erazemk/inventar/internal/metrics"
	"github.com/erazemk/inventar/internal/store"
)

func main() {
	fs := flag.NewFlagSet("inventar", flag.ContinueOnError)

	var envFile string
	fs.StringVar(&envFile, "env", "", "")
	fs.StringVar(&envFile, "e", "", "")

	var dbPath string
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")

	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	var adminUser string
	fs.StringVar(&adminUser, "user", "", "")
	fs.StringVar(&adminUser, "u", "", "")

	var logPath string
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: inventar [flags]

Flags:
  -e, -env <path>         env file to load (default: .env if present)
  -d, -db <path>          SQLite database path (default: $INVENTAR_DB or inventar.sqlite3)
  -a, -addr <host:port>   listen address (default: $INVENTAR_ADDR or :8080)
  -u, -user <name>        admin username on first run (default: first name in $INVENTAR_ADMIN_LOGINS)
  -l, -log <path>         log file path (default: $INVENTAR_LOG, stdout/stderr only)
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if logPath != "" {
		cfg.LogPath = logPath
	}

	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	admins := cfg.Admins()
	if adminUser == "" {
		adminUser = firstAdmin(cfg.AdminLogins)
	}
	if adminUser == "" {
		slog.Error("no admin configured, set INVENTAR_ADMIN_LOGINS or -user")
		os.Exit(1)
	}
	if !admins.IsAdmin(adminUser) {
		slog.Warn("initial user is not in the admin allowlist", "user", adminUser)
	}

	// Auto-init on first run.
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		database, password, err := initDatabase(cfg.DBPath, adminUser)
		if err != nil {
			slog.Error("failed to initialize database", "error", err)
			os.Exit(1)
		}
		database.Close()

		printInitResult(cfg.DBPath, adminUser, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	slog.Info("database ready", "path", cfg.DBPath)

	secret, err := store.SessionSigningKey(context.Background(), database)
	if err != nil {
		slog.Error("failed to get session signing key", "error", err)
		os.Exit(1)
	}

	labels := export.Labels{Yes: cfg.Export.YesLabel, No: cfg.Export.NoLabel}

	var snapshots api.Snapshotter
	if cfg.S3.Bucket != "" {
		uploader, err := export.NewUploader(context.Background(), export.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			Prefix:    cfg.S3.Prefix,
			PathStyle: cfg.S3.PathStyle,
		}, labels)
		if err != nil {
			slog.Error("failed to set up snapshot storage", "error", err)
			os.Exit(1)
		}
		snapshots = uploader
		slog.Info("snapshot storage enabled", "bucket", cfg.S3.Bucket, "prefix", cfg.S3.Prefix)
	}

	handler := api.NewRouter(api.Options{
		DB:        database,
		JWTSecret: secret,
		Admins:    admins,
		Metrics:   metrics.New(),
		Labels:    labels,
		Snapshots: snapshots,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "admins", len(admins))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}

// firstAdmin returns the first name of a comma-separated allowlist.
func firstAdmin(logins string) string {
	for _, name := range strings.Split(logins, ",") {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return ""
}

// initDatabase creates a new database with the schema and an initial admin
// account. On failure the half-created file is removed.
func initDatabase(path, adminUsername string) (database *sql.DB, password string, err error) {
	database, err = db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err != nil {
			database.Close()
			os.Remove(path)
		}
	}()

	if err = db.EnsureSchema(database); err != nil {
		return nil, "", fmt.Errorf("ensuring schema: %w", err)
	}

	password, err = generatePassword(16)
	if err != nil {
		return nil, "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	if _, err = store.CreateUser(context.Background(), database, adminUsername, string(hash), "Administrator"); err != nil {
		return nil, "", fmt.Errorf("creating admin user: %w", err)
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("It can be changed after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
