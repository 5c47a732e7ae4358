package cliparse

import (
	"os"
	"path/filepath"
	"testing"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "DATABASE_URL", "DATABASE_TYPE", "ADMIN_KEY_SALT", "DECISION_SLUG_SALT", "BASE_URL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("ADMIN_KEY_SALT", "test-salt")
	t.Setenv("DECISION_SLUG_SALT", "test-slug")
	t.Setenv("BASE_URL", "https://decide.example.com/")

	cfg, err := ParseFlags([]string{"-env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres, got %q", cfg.DatabaseType)
	}
	if got := cfg.ShareURL("abc"); got != "https://decide.example.com/decisions/abc" {
		t.Errorf("unexpected share URL %q", got)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-admin-salt", "s1", "-slug-salt", "s2", "-env-file", ""})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("unexpected default base URL %q", cfg.BaseURL)
	}
}

func TestParseFlags_DotEnvFile(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "test.env")
	contents := "ADMIN_KEY_SALT=from-file\nDECISION_SLUG_SALT=slug-from-file\nDATABASE_URL=file:dotenv.db\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("ADMIN_KEY_SALT")
		os.Unsetenv("DECISION_SLUG_SALT")
		os.Unsetenv("DATABASE_URL")
	})

	cfg, err := ParseFlags([]string{"-env-file", path})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.AdminKeySalt != "from-file" || cfg.DecisionSlugSalt != "slug-from-file" {
		t.Errorf("salts not loaded from dotenv: %+v", cfg)
	}
	if cfg.DatabaseURL != "file:dotenv.db" {
		t.Errorf("expected database URL from dotenv, got %q", cfg.DatabaseURL)
	}
}

func TestParseFlags_MissingSecrets(t *testing.T) {
	clearConfigEnv(t)

	if _, err := ParseFlags([]string{"-env-file", ""}); err == nil {
		t.Error("expected error when ADMIN_KEY_SALT is missing")
	}
	if _, err := ParseFlags([]string{"-admin-salt", "a", "-env-file", ""}); err == nil {
		t.Error("expected error when DECISION_SLUG_SALT is missing")
	}
}

func TestParseFlags_PostgresRequiresURL(t *testing.T) {
	clearConfigEnv(t)

	_, err := ParseFlags([]string{"-t", "postgres", "-admin-salt", "a", "-slug-salt", "b", "-env-file", ""})
	if err == nil {
		t.Error("expected error when postgres has no URL")
	}
}

func TestParseFlags_UnsupportedType(t *testing.T) {
	clearConfigEnv(t)

	_, err := ParseFlags([]string{"-t", "mysql", "-admin-salt", "a", "-slug-salt", "b", "-env-file", ""})
	if err == nil {
		t.Error("expected error for unsupported database type")
	}
}
