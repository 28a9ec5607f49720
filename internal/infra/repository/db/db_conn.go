package db

import (
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/config"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func gormConfig() *gorm.Config {
	return &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  logger.Default.LogMode(logger.Warn),
	}
}

func GetDbConn(dbname, host, port, user, pas string) (*gorm.DB, error) {
	// 資料來源名稱 (DSN)
	dsn := fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=disable TimeZone=UTC", user, pas, host, port, dbname)

	// 連線到資料庫
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	return db, nil
}

// GetSqliteConn 本機開發與測試用，path 為 ":memory:" 時使用記憶體資料庫
// sqlite 同時只允許一個寫入者，連線數固定為 1
func GetSqliteConn(path string) (*gorm.DB, error) {
	if path == "" || path == ":memory:" {
		path = "file::memory:"
	}
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	return db, nil
}

// Open 依設定選擇 driver
func Open(cf *config.Config) (*gorm.DB, error) {
	switch cf.DbDriver {
	case config.DriverSqlite:
		return GetSqliteConn(cf.SqlitePath)
	default:
		return GetDbConn(cf.DbName, cf.DbHost, cf.DbPort, cf.DbUser, cf.DbPas)
	}
}
