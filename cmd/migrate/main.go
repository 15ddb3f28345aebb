package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"bookstore-ecommerce/internal/config"
	"bookstore-ecommerce/migrations"
	"bookstore-ecommerce/pkg/logger"
)

const schemaTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version     VARCHAR(255) PRIMARY KEY,
    applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func main() {
	cmd := flag.String("cmd", "up", "up | status")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}
	if _, err := db.ExecContext(ctx, schemaTable); err != nil {
		log.Fatal().Err(err).Msg("create schema_migrations")
	}

	switch *cmd {
	case "up":
		n, err := up(ctx, db, migrations.FS)
		if err != nil {
			log.Fatal().Err(err).Msg("migrate up failed")
		}
		log.Info().Int("applied", n).Msg("migrations up to date")
	case "status":
		if err := status(ctx, db, migrations.FS); err != nil {
			log.Fatal().Err(err).Msg("migration status failed")
		}
	default:
		log.Fatal().Str("cmd", *cmd).Msg("unknown command")
	}
}

func files(fsys fs.FS) ([]string, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func applied(ctx context.Context, db *sql.DB) (map[string]time.Time, error) {
	rows, err := db.QueryContext(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[string]time.Time)
	for rows.Next() {
		var v string
		var at time.Time
		if err := rows.Scan(&v, &at); err != nil {
			return nil, err
		}
		done[v] = at
	}
	return done, rows.Err()
}

// up áp dụng các file chưa chạy, mỗi file trong một transaction riêng
func up(ctx context.Context, db *sql.DB, fsys fs.FS) (int, error) {
	names, err := files(fsys)
	if err != nil {
		return 0, err
	}
	done, err := applied(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("read schema_migrations: %w", err)
	}

	count := 0
	for _, name := range names {
		version := strings.TrimSuffix(name, ".sql")
		if _, ok := done[version]; ok {
			continue
		}

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return count, err
		}
		if err := apply(ctx, db, version, string(body)); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) {
				return count, fmt.Errorf("%s: %s (code=%s, detail=%s)", name, pqErr.Message, pqErr.Code, pqErr.Detail)
			}
			return count, fmt.Errorf("%s: %w", name, err)
		}
		log.Info().Str("version", version).Msg("migration applied")
		count++
	}
	return count, nil
}

func apply(ctx context.Context, db *sql.DB, version, body string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return err
	}
	return tx.Commit()
}

func status(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	names, err := files(fsys)
	if err != nil {
		return err
	}
	done, err := applied(ctx, db)
	if err != nil {
		return err
	}
	for _, name := range names {
		version := strings.TrimSuffix(name, ".sql")
		if at, ok := done[version]; ok {
			log.Info().Str("version", version).Time("applied_at", at).Msg("applied")
		} else {
			log.Info().Str("version", version).Msg("pending")
		}
	}
	return nil
}
