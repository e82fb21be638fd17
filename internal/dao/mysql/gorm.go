// Package dao initialises the MySQL connection, migrates the schema and
// exposes the global repository aggregate.
package dao

import (
	"fmt"

	"ripple_chat_server/internal/config"
	"ripple_chat_server/internal/dao/mysql/repository"
	"ripple_chat_server/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// GormDB is the global GORM instance.
var GormDB *gorm.DB

// Repos is the global repository aggregate, injected into the service layer.
var Repos *repository.Repositories

// Init connects, migrates and builds the repositories.
// TranslateError is on so a duplicate-key insert surfaces as
// gorm.ErrDuplicatedKey; the find-or-create race on direct conversations
// depends on that.
func Init() {
	conf := config.GetConfig()

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		conf.MysqlConfig.User,
		conf.MysqlConfig.Password,
		conf.MysqlConfig.Host,
		conf.MysqlConfig.Port,
		conf.MysqlConfig.DatabaseName,
	)

	var err error
	GormDB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		zap.L().Fatal(err.Error())
	}

	err = GormDB.AutoMigrate(
		&model.UserInfo{},
		&model.UserContact{},
		&model.Conversation{},
		&model.ConversationMember{},
		&model.Message{},
		&model.MessageReceipt{},
		&model.MessageReaction{},
	)
	if err != nil {
		zap.L().Fatal(err.Error())
	}

	Repos = repository.NewRepositories(GormDB)
}
