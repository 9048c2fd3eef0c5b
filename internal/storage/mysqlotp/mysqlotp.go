package mysqlotp

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

const DefaultTable = "otp_reports"

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Storage reads shipment event rows from the otp_reports table.
type Storage struct {
	db    *sql.DB
	table string
}

type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	Table    string
}

// DSN builds a go-sql-driver DSN. Times are fetched as strings, so parseTime stays off.
func DSN(o Options) string {
	cfg := mysql.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", o.Host, o.Port)
	cfg.DBName = o.DBName
	cfg.Timeout = 10 * time.Second
	cfg.ReadTimeout = 2 * time.Minute
	return cfg.FormatDSN()
}

func New(dsn, table string) (*Storage, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)

	s, err := NewWithDB(db, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping mysql")
	}
	return s, nil
}

func NewWithDB(db *sql.DB, table string) (*Storage, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNameRe.MatchString(table) {
		return nil, errors.Errorf("invalid table name %q", table)
	}
	return &Storage{db: db, table: table}, nil
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
