package sqlite

import (
	"PipelineCRM/config"
	"PipelineCRM/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var global *gorm.DB

// DB 返回全局数据库实例（未初始化时为 nil）。
func DB() *gorm.DB {
	return global
}

// ReplaceGlobal 设置全局数据库实例，进程启动时调用一次。
func ReplaceGlobal(db *gorm.DB) {
	global = db
}

// Build 打开内嵌 SQLite 并完成建表。
// 本地单文件库没有独立的迁移流程，启动时 AutoMigrate 即可；
// SQLite 同库写并发有限，连接池收紧到单写连接，读放开。
func Build(cfg config.StoreConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}
	if cfg.LogSQL {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(
		&model.RelationshipEdge{},
		&model.Document{},
	); err != nil {
		return nil, err
	}

	return db, nil
}

// Close 关闭底层连接池，停机时调用。
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
