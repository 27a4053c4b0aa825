package recent

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/azariak/PolymarketDataVisualizer/internal/models"
)

// GormStore keeps the list in the recent_addresses table.
type GormStore struct {
	db       *gorm.DB
	capacity int
	now      func() time.Time
}

func NewGormStore(db *gorm.DB, capacity int) *GormStore {
	return &GormStore{db: db, capacity: clampCapacity(capacity), now: func() time.Time { return time.Now().UTC() }}
}

func (s *GormStore) Touch(ctx context.Context, address string, summary *Summary) error {
	if s == nil || s.db == nil {
		return errors.New("recent store not configured")
	}
	row, err := toRow(address, summary, s.now())
	if err != nil {
		return err
	}
	updates := []string{"viewed_at", "updated_at"}
	if summary != nil {
		updates = append(updates, "summary")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoUpdates: clause.AssignmentColumns(updates),
		}).Create(&row).Error; err != nil {
			return err
		}
		keep := tx.Model(&models.RecentAddress{}).
			Select("address").
			Order("viewed_at DESC").
			Limit(s.capacity)
		return tx.Where("address NOT IN (?)", keep).Delete(&models.RecentAddress{}).Error
	})
}

func (s *GormStore) List(ctx context.Context) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("recent store not configured")
	}
	var rows []models.RecentAddress
	if err := s.db.WithContext(ctx).
		Order("viewed_at DESC").
		Limit(s.capacity).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

func toRow(address string, summary *Summary, now time.Time) (models.RecentAddress, error) {
	row := models.RecentAddress{Address: address, ViewedAt: now}
	if summary != nil {
		raw, err := json.Marshal(summary)
		if err != nil {
			return models.RecentAddress{}, err
		}
		row.Summary = datatypes.JSON(raw)
	}
	return row, nil
}

func fromRow(row models.RecentAddress) Entry {
	entry := Entry{Address: row.Address, ViewedAt: row.ViewedAt}
	if len(row.Summary) > 0 && string(row.Summary) != "null" {
		var sum Summary
		if err := json.Unmarshal(row.Summary, &sum); err == nil {
			entry.Summary = &sum
		}
	}
	return entry
}
