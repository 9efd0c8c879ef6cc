package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	types "github.com/yungbote/roadwatch-backend/internal/domain"
	"github.com/yungbote/roadwatch-backend/internal/geo"
	"github.com/yungbote/roadwatch-backend/internal/platform/logger"
	"github.com/yungbote/roadwatch-backend/internal/services"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DB_DRIVER", "SQLITE_PATH", "REDIS_ADDR", "DBSCAN_EPS_METERS", "DBSCAN_MIN_PTS", "ROADWATCH_CONFIG", "CACHE_TTL", "OTEL_ENABLED"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(logger.NewNop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DB.Driver != DriverPostgres || cfg.Cluster.EpsMeters != 100 || cfg.Cluster.MinPts != 2 {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.Cache.Redis.MaxMemory != "512mb" || cfg.Cache.Redis.Policy != "allkeys-lru" {
		t.Fatalf("redis defaults: %+v", cfg.Cache.Redis)
	}
}

func TestLoadConfigEnvThenYAMLOverlay(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "from-env.db")
	t.Setenv("DBSCAN_MIN_PTS", "4")
	t.Setenv("CACHE_TTL", "90")

	path := filepath.Join(t.TempDir(), "roadwatch.yaml")
	overlay := "db:\n  sqlite_path: from-file.db\ncluster:\n  eps_meters: 250\ncache:\n  redis:\n    ttl: 2m\n"
	if err := os.WriteFile(path, []byte(overlay), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Setenv("ROADWATCH_CONFIG", path)

	cfg, err := LoadConfig(logger.NewNop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DB.Driver != DriverSQLite {
		t.Fatalf("driver = %q", cfg.DB.Driver)
	}
	if cfg.DB.SQLitePath != "from-file.db" {
		t.Fatalf("file should win: %q", cfg.DB.SQLitePath)
	}
	if cfg.Cluster.MinPts != 4 || cfg.Cluster.EpsMeters != 250 {
		t.Fatalf("cluster: %+v", cfg.Cluster)
	}
	if cfg.Cache.Redis.TTL != 2*time.Minute {
		t.Fatalf("ttl = %v", cfg.Cache.Redis.TTL)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := LoadConfig(logger.NewNop()); err == nil {
		t.Fatalf("expected unknown driver error")
	}

	clearEnv(t)
	t.Setenv("ROADWATCH_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := LoadConfig(logger.NewNop()); err == nil {
		t.Fatalf("expected missing overlay error")
	}
}

func TestNewWithConfigWiresSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		DB:      DBConfig{Driver: DriverSQLite, SQLitePath: "file:roadwatch_app_test?mode=memory&cache=shared"},
		Cluster: ClusterConfig{EpsMeters: 100, MinPts: 2},
	}
	a, err := NewWithConfig(ctx, cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	defer a.Close(ctx)

	u, err := a.Services.Users.Register(ctx, services.RegisterInput{Nickname: "ana", Email: "ana@example.com", Password: "long-enough"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	r, err := a.Services.Reports.Create(ctx, services.CreateReportInput{
		UserID:   u.ID,
		Date:     "2024-01-02",
		Position: types.NewGeoPoint(geo.Point{Lat: 42.4642, Lng: 13.19}),
		Type:     types.ReportTypeDip,
		Severity: types.SeverityHighDip,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := a.Services.Reports.Validate(ctx, r.ID); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	counts, err := a.Services.Analytics.StatusCounts(ctx)
	if err != nil {
		t.Fatalf("StatusCounts: %v", err)
	}
	if counts[types.ReportTypeDip][types.SeverityHighDip][types.StatusValidated] != 1 {
		t.Fatalf("counts: %+v", counts)
	}
}
