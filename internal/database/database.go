package database

import (
	"context"
	"fmt"
	"time"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/config"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// BuildDSN builds a PostgreSQL DSN from the database config.
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// Connect opens the database and applies pool settings from the config.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(BuildDSN(cfg)), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 10
	}
	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 100
	}
	maxLifetime := cfg.ConnMaxLifetime
	if maxLifetime == 0 {
		maxLifetime = 3600
	}
	maxIdleTime := cfg.ConnMaxIdleTime
	if maxIdleTime == 0 {
		maxIdleTime = 600
	}

	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(time.Duration(maxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(maxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry connects with exponential backoff between attempts.
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Migrate creates or updates the schema and indexes. This replaces the
// per-request "ensure table exists" checks the controllers used to carry.
func Migrate(db *gorm.DB) error {
	dialector := db.Dialector.Name()

	// SQLite has no text[] or jsonb; tests get TEXT columns instead.
	if dialector == "sqlite" || dialector == "sqlite3" {
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else {
		if err := db.AutoMigrate(
			&model.UserProfile{},
			&model.Task{},
			&model.TimeLog{},
			&model.Notification{},
			&model.Post{},
		); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createSQLiteTables creates the schema by hand for SQLite (TEXT columns
// stand in for text[] and jsonb).
func createSQLiteTables(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			email VARCHAR(255),
			firebase_uid VARCHAR(128),
			google_id VARCHAR(128),
			parent_manager_id VARCHAR(64),
			roles TEXT,
			display_name VARCHAR(255),
			avatar_url TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			id VARCHAR(64) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			status VARCHAR(32) NOT NULL DEFAULT 'open',
			priority VARCHAR(16) NOT NULL DEFAULT 'medium',
			category VARCHAR(128),
			due_date DATETIME,
			assignees TEXT,
			tags TEXT,
			checklist TEXT,
			created_by VARCHAR(64) NOT NULL,
			parent_task_id VARCHAR(64),
			estimated_hours DECIMAL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create tasks table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS task_time_logs (
			id VARCHAR(64) PRIMARY KEY,
			task_id VARCHAR(64) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			actual_hours DECIMAL NOT NULL,
			logged_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create task_time_logs table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS notifications (
			id VARCHAR(64) PRIMARY KEY,
			recipient_id VARCHAR(64) NOT NULL,
			task_id VARCHAR(64) NOT NULL,
			kind VARCHAR(32) NOT NULL,
			title VARCHAR(255),
			body TEXT,
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create notifications table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id VARCHAR(64) PRIMARY KEY,
			author_id VARCHAR(64) NOT NULL,
			task_id VARCHAR(64) NOT NULL,
			kind VARCHAR(32) NOT NULL,
			content TEXT,
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create posts table: %w", err)
	}

	return nil
}

// CreateIndexes creates the query indexes.
func CreateIndexes(db *gorm.DB) error {
	dialector := db.Dialector.Name()

	indexes := []struct {
		name string
		stmt string
	}{
		{"idx_users_email", "CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)"},
		{"idx_users_firebase_uid", "CREATE INDEX IF NOT EXISTS idx_users_firebase_uid ON users(firebase_uid)"},
		{"idx_users_parent_manager", "CREATE INDEX IF NOT EXISTS idx_users_parent_manager ON users(parent_manager_id)"},
		{"idx_tasks_status", "CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)"},
		{"idx_tasks_priority", "CREATE INDEX IF NOT EXISTS idx_tasks_priority ON tasks(priority)"},
		{"idx_tasks_created_by", "CREATE INDEX IF NOT EXISTS idx_tasks_created_by ON tasks(created_by)"},
		{"idx_tasks_parent_task", "CREATE INDEX IF NOT EXISTS idx_tasks_parent_task ON tasks(parent_task_id)"},
		{"idx_tasks_updated_at", "CREATE INDEX IF NOT EXISTS idx_tasks_updated_at ON tasks(updated_at)"},
		{"idx_time_logs_task_user", "CREATE UNIQUE INDEX IF NOT EXISTS idx_time_logs_task_user ON task_time_logs(task_id, user_id)"},
		{"idx_notifications_recipient", "CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id)"},
		{"idx_notifications_created_at", "CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications(created_at)"},
		{"idx_posts_author", "CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id)"},
		{"idx_posts_created_at", "CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at)"},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.stmt).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", idx.name, err)
		}
	}

	// PostgreSQL-only GIN indexes for array containment and JSONB lookups.
	if dialector == "postgres" {
		if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_tasks_assignees_gin ON tasks USING GIN (assignees)").Error; err != nil {
			return fmt.Errorf("failed to create idx_tasks_assignees_gin: %w", err)
		}
		if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_tasks_checklist_gin ON tasks USING GIN (checklist)").Error; err != nil {
			return fmt.Errorf("failed to create idx_tasks_checklist_gin: %w", err)
		}
	}

	return nil
}

// CheckHealth reports whether the database connection is usable.
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx) == nil
}
