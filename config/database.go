package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"momentum/models"
)

func ConnectDB() error {
	logrus.Info("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	logrus.Debugf("Using connection string: %s", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), GormConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	logrus.Info("Successfully connected to the database")
	return nil
}

// GormConfig is shared by the Postgres connection and the SQLite test
// databases so both translate driver errors the same way.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Migrate creates or updates the schema, then adds the partial unique
// indexes AutoMigrate cannot express.
func Migrate(db *gorm.DB) error {
	logrus.Info("Starting database migration...")
	if err := db.AutoMigrate(
		&models.Account{},
		&models.Organization{},
		&models.Employee{},
		&models.Project{},
		&models.ProjectAssignment{},
		&models.Task{},
		&models.TaskAssignment{},
		&models.TimeTrackingSession{},
		&models.Screenshot{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// Both Postgres and SQLite accept partial indexes with this syntax.
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_time_tracking_one_open
			ON time_tracking_sessions (employee_id)
			WHERE clock_out IS NULL AND is_active = true`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_one_default
			ON tasks (project_id)
			WHERE is_default = true AND is_active = true`,
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	logrus.Info("Database migration completed")
	return nil
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}
