package setup

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nwesha/Zcoder/internal/domain"
)

// MigrateDB runs the schema automigration for all persisted models.
func MigrateDB(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.User{},
		&domain.Room{},
		&domain.Participant{},
		&domain.ChatMessage{},
		&domain.Problem{},
		&domain.Bookmark{},
		&domain.Activity{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
