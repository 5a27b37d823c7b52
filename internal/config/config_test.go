package config

import (
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"quillblog/internal/model"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "REDIS_URL", "COMMENT_AUTO_APPROVE", "COMMENT_MAX_LENGTH",
		"REPORT_DETAILS_MAX_LENGTH", "USER_CACHE_TTL", "DB_SSLMODE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.DBSSLMode != "require" {
		t.Errorf("DBSSLMode = %q, want require", cfg.DBSSLMode)
	}
	if cfg.AutoApproveComments {
		t.Error("AutoApproveComments should default to false")
	}
	if cfg.MaxCommentLength != model.DefaultMaxCommentLength {
		t.Errorf("MaxCommentLength = %d, want %d", cfg.MaxCommentLength, model.DefaultMaxCommentLength)
	}
	if cfg.MaxReportDetailsLength != model.DefaultMaxReportDetailsLength {
		t.Errorf("MaxReportDetailsLength = %d, want %d", cfg.MaxReportDetailsLength, model.DefaultMaxReportDetailsLength)
	}
	if cfg.UserCacheTTL != 5*time.Minute {
		t.Errorf("UserCacheTTL = %v, want 5m", cfg.UserCacheTTL)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("COMMENT_AUTO_APPROVE", "true")
	t.Setenv("COMMENT_CASCADE_TRASH", "1")
	t.Setenv("COMMENT_MAX_LENGTH", "140")
	t.Setenv("STATS_CACHE_TTL", "1m")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if !cfg.AutoApproveComments || !cfg.CascadeTrashToReplies {
		t.Error("policy flags should be enabled")
	}
	if cfg.MaxCommentLength != 140 {
		t.Errorf("MaxCommentLength = %d, want 140", cfg.MaxCommentLength)
	}
	if cfg.StatsCacheTTL != time.Minute {
		t.Errorf("StatsCacheTTL = %v, want 1m", cfg.StatsCacheTTL)
	}
}

func TestLoadConfig_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("COMMENT_MAX_LENGTH", "-5")
	t.Setenv("WORKER_COUNT", "lots")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxCommentLength != model.DefaultMaxCommentLength {
		t.Errorf("MaxCommentLength = %d, want default", cfg.MaxCommentLength)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("WorkerCount = %d, want 2", cfg.WorkerCount)
	}
}

func TestLoadConfig_MissingEnvFileIsLogged(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	hook := test.NewLocal(logrus.StandardLogger())
	t.Cleanup(hook.Reset)

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Data["service"] == "Config" && e.Level == logrus.InfoLevel {
			found = true
		}
	}
	if !found {
		t.Error("expected a Config log entry about the missing .env file")
	}
}
