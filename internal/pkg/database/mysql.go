// internal/pkg/database/mysql.go
package database

import (
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"minimall/internal/pkg/config"
)

// Open 按配置建立 MySQL 连接。
// TranslateError 必须开启，仓储层依赖 gorm.ErrDuplicatedKey 识别唯一键冲突。
func Open(cfg config.MysqlConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open mysql %s", cfg.Addr)
	}
	return db, nil
}
