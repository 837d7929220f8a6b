package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"yatube/internal/config"
	"yatube/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes accepted by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan lists the schema steps a configuration asks for.
type SchemaPlan struct {
	Mode   string
	Driver string
	SQL    bool // embedded SQL migrations
	Auto   bool // GORM AutoMigrate
}

// SchemaStatus is a plan together with the migration history it would act on.
type SchemaStatus struct {
	SchemaPlan
	Environment       string
	AppliedVersions   []int
	PendingMigrations []Migration
}

// Environments where AutoMigrate never touches the schema.
var sharedEnvs = []string{"production", "prod", "staging", "stage"}

// PlanSchema resolves DB_SCHEMA_MODE for the configured driver and environment.
// The SQL files target PostgreSQL, so SQLite always uses AutoMigrate.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{
		Mode:   strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)),
		Driver: driverName(cfg),
	}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	switch plan.Mode {
	case SchemaModeHybrid, SchemaModeSQL, SchemaModeAuto:
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}

	if plan.Driver == "sqlite" {
		plan.Auto = true
		return plan, nil
	}

	shared := slices.Contains(sharedEnvs, strings.ToLower(strings.TrimSpace(cfg.Env)))
	if plan.Mode == SchemaModeAuto && shared {
		return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q", cfg.Env)
	}
	plan.SQL = plan.Mode != SchemaModeAuto
	plan.Auto = plan.Mode == SchemaModeAuto || (plan.Mode == SchemaModeHybrid && !shared)
	return plan, nil
}

// AutoMigrate creates or updates every persistent table from the GORM models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the database schema up to date according to cfg.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}
	if plan.SQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if !plan.Auto {
		return nil
	}
	middleware.Logger.Info("auto-migrating models",
		slog.String("mode", plan.Mode),
		slog.String("driver", plan.Driver),
	)
	if err := AutoMigrate(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus reports the plan for cfg and, when SQL migrations are part
// of it, which embedded versions are still pending.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan, Environment: cfg.Env}
	if !plan.SQL {
		return status, nil
	}

	status.AppliedVersions, err = NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range GetMigrations() {
		if !slices.Contains(status.AppliedVersions, m.Version) {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
