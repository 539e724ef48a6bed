package db

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/monocle-dev/taskboard/internal/models"
	"gorm.io/gorm"
)

// Migrate creates the schema on an empty database and applies every pending
// migration on an existing one.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations())

	m.InitSchema(func(tx *gorm.DB) error {
		return tx.AutoMigrate(models.AllModels()...)
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("could not migrate: %w", err)
	}

	return nil
}

func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			// orphaned file bookkeeping for the upload sweeper
			ID: "202501100001",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.OrphanedFile{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("orphaned_files")
			},
		},
		{
			// unread lookups by recipient
			ID: "202501100002",
			Migrate: func(tx *gorm.DB) error {
				if tx.Migrator().HasIndex(&models.Notification{}, "idx_notifications_user_read") {
					return nil
				}
				return tx.Migrator().CreateIndex(&models.Notification{}, "idx_notifications_user_read")
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropIndex(&models.Notification{}, "idx_notifications_user_read")
			},
		},
	}
}
