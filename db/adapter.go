package db

import (
	"fmt"

	"github.com/unrealsaint/lucera2missionparser/config"
	dbmysql "github.com/unrealsaint/lucera2missionparser/db/mysql"
	dbsqlite "github.com/unrealsaint/lucera2missionparser/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeSQLite = "sqlite"
	ModeMySQL  = "mysql"
)

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMySQL:
		return dbmysql.Open(cfg)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
