package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	cartports "github.com/Th0mes/ignite-cart/internal/domains/cart/ports"
)

var _ cartports.PersistentStore = (*Store)(nil)

// Store persists serialized carts in PostgreSQL using GORM.
type Store struct {
	db *gorm.DB
}

// NewStore wires a PostgreSQL-backed key-value store. Caller owns DB lifecycle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// cartStateRecord maps one persisted cart to a row.
type cartStateRecord struct {
	Key       string    `gorm:"primaryKey;column:cart_key;size:512"`
	Value     string    `gorm:"column:value;type:text"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;index"`
}

func (cartStateRecord) TableName() string { return "cart_states" }

// Get loads the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.ensureDB(); err != nil {
		return "", false, err
	}
	var rec cartStateRecord
	if err := s.db.WithContext(ctx).First(&rec, "cart_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return rec.Value, true, nil
}

// Set upserts the value stored under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("cart key is required")
	}
	rec := cartStateRecord{Key: key, Value: value}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      value,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).
		Create(&rec).Error
}

// PurgeStale removes carts untouched for longer than ttl and reports how many went away.
func (s *Store) PurgeStale(ctx context.Context, ttl time.Duration) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	if ttl <= 0 {
		return 0, errors.New("ttl must be positive")
	}
	cutoff := time.Now().Add(-ttl)
	result := s.db.WithContext(ctx).Where("updated_at <= ?", cutoff).Delete(&cartStateRecord{})
	return result.RowsAffected, result.Error
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres cart store not configured")
	}
	return nil
}
