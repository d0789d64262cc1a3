package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// New opens a Postgres connection with the given DSN and sets pool limits.
func New(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Pinger adapts the connection pool to health checks.
type Pinger struct {
	db *gorm.DB
}

// NewPinger creates a Pinger over an open connection.
func NewPinger(db *gorm.DB) *Pinger {
	return &Pinger{db: db}
}

// Ping verifies the connection.
func (p *Pinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates the schema, pins the embedding column to the configured
// dimensionality and builds the nearest-neighbor index. It is idempotent.
// A vectorSize that disagrees with an existing typed column fails here,
// before any request is served.
func Migrate(db *gorm.DB, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("vector size must be positive, got %d", vectorSize)
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	if err := db.AutoMigrate(
		&User{},
		&Model{},
		&Embedding{},
		&Content{},
		&Query{},
		&SearchRecord{},
		&Task{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// vectorSize is validated above; it never comes from request input.
	alter := fmt.Sprintf("ALTER TABLE embeddings ALTER COLUMN vector TYPE vector(%d)", vectorSize)
	if err := db.Exec(alter).Error; err != nil {
		return fmt.Errorf("failed to set embedding dimensionality to %d: %w", vectorSize, err)
	}

	// Inner-product index; the search path orders by the <#> operator.
	index := "CREATE INDEX IF NOT EXISTS idx_embeddings_vector ON embeddings USING hnsw (vector vector_ip_ops)"
	if err := db.Exec(index).Error; err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	return nil
}
