package postgres

import (
	"context"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

type DB struct {
	Host         string        `yaml:"host" envconfig:"DB_HOST" default:"localhost"`
	Port         int           `yaml:"port" envconfig:"DB_PORT" default:"5432"`
	Username     string        `yaml:"user" envconfig:"DB_USER" default:"postgres"`
	Password     string        `yaml:"password" envconfig:"DB_PASSWORD"`
	NameDB       string        `yaml:"dbname" envconfig:"DB_NAME" default:"postgres"`
	SSLMode      string        `yaml:"sslmode" envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenConns int           `yaml:"maxOpenConns" envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	ConnLifetime time.Duration `yaml:"connLifetime" envconfig:"DB_CONN_LIFETIME" default:"5m"`
	// MigrationsTable keeps each service's goose history apart in a shared database.
	MigrationsTable string `yaml:"migrationsTable" envconfig:"DB_MIGRATIONS_TABLE"`
}

func (cfg *DB) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.NameDB, cfg.SSLMode)
}

// NewPostgresDB connects through the pgx driver and applies the embedded goose migrations.
func NewPostgresDB(ctx context.Context, cfg *DB, migrations embed.FS) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "sqlx.Connect")
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.ConnLifetime)

	if err := migrate(db, migrations, cfg.MigrationsTable); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sqlx.DB, migrations embed.FS, table string) error {
	goose.SetBaseFS(migrations)
	if table != "" {
		goose.SetTableName(table)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "goose.SetDialect")
	}
	if err := goose.Up(db.DB, "."); err != nil {
		return errors.Wrap(err, "goose.Up")
	}
	return nil
}
