package database

import (
	"github.com/cadencehq/beacon/pkg/internal/models"
	"gorm.io/gorm"
)

var AutoMaintainRange = []any{
	&models.Session{},
	&models.Channel{},
	&models.CallRecord{},
	&models.ReadReceipt{},
}

func RunMigration(source *gorm.DB) error {
	if err := source.AutoMigrate(AutoMaintainRange...); err != nil {
		return err
	}

	return nil
}
