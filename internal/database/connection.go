// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wastetrack/wastetrack-backend/internal/config"
	"github.com/wastetrack/wastetrack-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	switch cfg.LogLevel {
	case "silent":
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	case "info":
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	default:
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// The database may still be starting up alongside us; retry the first
	// ping with exponential backoff before giving up.
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	err = backoff.Retry(func() error {
		if pingErr := sqlDB.Ping(); pingErr != nil {
			logrus.WithError(pingErr).Warn("Database not reachable yet, retrying")
			return pingErr
		}
		return nil
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.CompanyAssociation{},
		&models.Form{},
		&models.TransportSegment{},
		&models.Grouping{},
		&models.RevisionRequest{},
		&models.RevisionRequestApproval{},
		&models.StatusLog{},
		&models.AuditLog{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Form indexes
		"CREATE INDEX IF NOT EXISTS idx_forms_status ON forms(status) WHERE is_deleted = false",
		"CREATE INDEX IF NOT EXISTS idx_forms_emitter_siret ON forms(emitter_company_siret)",
		"CREATE INDEX IF NOT EXISTS idx_forms_transporter_siret ON forms(transporter_company_siret)",
		"CREATE INDEX IF NOT EXISTS idx_forms_recipient_siret ON forms(recipient_company_siret)",
		"CREATE INDEX IF NOT EXISTS idx_forms_destination_siret ON forms(destination_company_siret)",
		"CREATE INDEX IF NOT EXISTS idx_forms_emitter_type_status ON forms(emitter_type, status)",
		"CREATE INDEX IF NOT EXISTS idx_forms_taken_over_at ON forms(taken_over_at)",
		"CREATE INDEX IF NOT EXISTS idx_forms_created_at ON forms(created_at DESC)",

		// Transport segment indexes
		"CREATE INDEX IF NOT EXISTS idx_segments_form_number ON transport_segments(form_id, segment_number)",
		"CREATE INDEX IF NOT EXISTS idx_segments_transporter ON transport_segments(transporter_company_siret)",

		// Grouping indexes
		"CREATE INDEX IF NOT EXISTS idx_groupings_next_form ON groupings(next_form_id)",
		"CREATE INDEX IF NOT EXISTS idx_groupings_initial_form ON groupings(initial_form_id)",

		// Revision request indexes
		"CREATE INDEX IF NOT EXISTS idx_revision_requests_form ON revision_requests(form_id)",
		"CREATE INDEX IF NOT EXISTS idx_revision_requests_status_created ON revision_requests(status, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_revision_approvals_request ON revision_request_approvals(revision_request_id)",
		"CREATE INDEX IF NOT EXISTS idx_revision_approvals_siret_status ON revision_request_approvals(approver_siret, status)",

		// Status log indexes
		"CREATE INDEX IF NOT EXISTS idx_status_logs_form_logged ON status_logs(form_id, logged_at DESC)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).Warnf("Failed to create index: %s", index)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
