package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Options selects the store and how to reach it. Path is used by the
// sqlite driver, the remaining fields by mysql.
type Options struct {
	Driver string
	Path   string
	User   string
	Pass   string
	Host   string
	Port   string
	Name   string
}

// Open connects to the configured store, verifies the connection and
// applies pending migrations.
func Open(ctx context.Context, opt Options) (*Gateway, error) {
	var (
		db  *sql.DB
		err error
	)
	switch opt.Driver {
	case "", DriverSQLite:
		opt.Driver = DriverSQLite
		db, err = openSQLite(opt.Path)
	case DriverMySQL:
		db, err = openMySQL(opt.User, opt.Pass, opt.Host, opt.Port, opt.Name)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", opt.Driver)
	}
	if err != nil {
		return nil, err
	}

	// Ping with timeout
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := Migrate(ctx, db, opt.Driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db, opt.Driver), nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("db path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One writer; sqlite serialises the rest.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

func openMySQL(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// clientFoundRows=true -> UPDATE reports matched rows, not changed rows
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}
