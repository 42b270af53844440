package mysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/unrealsaint/lucera2missionparser/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the MySQL server named by cfg.MySQLDSN and applies the
// pool settings. Reward names and descriptions are free text, so the
// connection is forced to utf8mb4.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.MySQLDSN == "" {
		return nil, errors.New("mysql: database.mysql_dsn is empty")
	}
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               withParams(cfg.MySQLDSN),
		DefaultStringSize: 255,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MySQLMaxOpen > 0 {
		sqlDB.SetMaxOpenConns(cfg.MySQLMaxOpen)
	}
	if cfg.MySQLMaxIdle > 0 {
		sqlDB.SetMaxIdleConns(cfg.MySQLMaxIdle)
	}
	sqlDB.SetConnMaxLifetime(cfg.MySQLMaxLife)
	return db, nil
}

// withParams appends charset and parseTime unless the DSN already sets them.
func withParams(dsn string) string {
	var add []string
	if !strings.Contains(dsn, "charset=") {
		add = append(add, "charset=utf8mb4")
	}
	if !strings.Contains(dsn, "parseTime=") {
		add = append(add, "parseTime=true")
	}
	if len(add) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(add, "&")
}
