package migrations

import (
	"time"

	"gorm.io/gorm"
)

// Run applies the schema used by the PostgreSQL cart store.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(&cartStateRecord{})
}

// Cart state schema mirrors the cart Postgres adapter.
type cartStateRecord struct {
	Key       string    `gorm:"primaryKey;column:cart_key;size:512"`
	Value     string    `gorm:"column:value;type:text"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;index"`
}

func (cartStateRecord) TableName() string { return "cart_states" }
