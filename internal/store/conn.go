package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens a Postgres connection using the pgx driver. An empty URL is
// not an error: the returned DB is nil-safe and every call becomes a no-op,
// so the bot runs fine without a database.
func Open(databaseURL string) (*DB, error) {
	if databaseURL == "" {
		return &DB{SQL: nil}, nil
	}
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &DB{SQL: db}, nil
}
