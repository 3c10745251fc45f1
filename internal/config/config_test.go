package config

import "testing"

// TestLoad_Defaults verifies that Load returns sensible development defaults
// when no environment variables are set.
func TestLoad_Defaults(t *testing.T) {
	envVars := []string{
		"APP_HOST", "APP_PORT", "APP_ENV", "APP_BASE_URL",
		"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
		"VALKEY_HOST", "VALKEY_PORT", "VALKEY_PASSWORD",
		"S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET", "S3_PUBLIC_URL",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD", "MAIL_FROM",
		"JWT_SECRET",
	}
	// envOrDefault treats empty the same as unset, so blanking the
	// variables is enough to exercise the defaults.
	for _, key := range envVars {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want %q", cfg.Host, "0.0.0.0")
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.DBUser != "imagehub" || cfg.DBName != "imagehub" {
		t.Errorf("DB defaults = %q/%q, want imagehub/imagehub", cfg.DBUser, cfg.DBName)
	}
	if cfg.S3Bucket != "imagehub-media" {
		t.Errorf("S3Bucket = %q, want %q", cfg.S3Bucket, "imagehub-media")
	}
	if !cfg.IsDev() {
		t.Error("IsDev() = false, want true for development defaults")
	}
}

// TestLoad_ProductionGuards verifies that production mode rejects
// default secrets.
func TestLoad_ProductionGuards(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	t.Setenv("POSTGRES_PASSWORD", "")
	t.Setenv("JWT_SECRET", "real-secret")
	if _, err := Load(); err == nil {
		t.Error("expected error for default POSTGRES_PASSWORD in production")
	}

	t.Setenv("POSTGRES_PASSWORD", "real-password")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Error("expected error for default JWT_SECRET in production")
	}

	t.Setenv("JWT_SECRET", "real-secret")
	if _, err := Load(); err != nil {
		t.Errorf("Load() with production secrets: %v", err)
	}
}

// TestDSN verifies the PostgreSQL connection string format.
func TestDSN(t *testing.T) {
	cfg := &Config{
		DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5433", DBName: "hub",
	}
	want := "postgres://u:p@db:5433/hub?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

// TestAddr verifies the listen address format.
func TestAddr(t *testing.T) {
	cfg := &Config{Host: "127.0.0.1", Port: "9000"}
	if got := cfg.Addr(); got != "127.0.0.1:9000" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:9000")
	}
}
