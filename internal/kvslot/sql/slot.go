package sqlslot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

var ErrConnectionFailed = errors.New("failed to connect")

type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

// Slot keeps one row per key in a Slots table.
type Slot struct {
	host     string
	port     int
	database string
	username string
	password string
	db       *sqlx.DB
}

func New(config Config) *Slot {
	return &Slot{
		host:     config.Host,
		port:     config.Port,
		database: config.Database,
		username: config.Username,
		password: config.Password,
	}
}

func (s *Slot) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(
		ctx,
		"postgres",
		fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			s.host, s.port, s.database, s.username, s.password),
	)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	s.db = db

	_, err = s.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS Slots (key TEXT PRIMARY KEY, value TEXT NOT NULL)")
	if err != nil {
		return fmt.Errorf("failed to prepare slots table: %w", err)
	}
	return nil
}

func (s *Slot) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM Slots WHERE key=$1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Slot) Set(ctx context.Context, key string, value string) error {
	_, err := s.db.ExecContext(
		ctx,
		"INSERT INTO Slots(key, value) VALUES($1, $2) ON CONFLICT (key) DO UPDATE SET value=$2",
		key, value)
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (s *Slot) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM Slots WHERE key=$1", key)
	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

func (s *Slot) Close(_ context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}
