package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// InsertSnapshot records one completed analysis for the user.
func InsertSnapshot(db *gorm.DB, snapshot *UsageSnapshot) error {
	if err := db.Create(snapshot).Error; err != nil {
		return fmt.Errorf("store: insert snapshot: %w", err)
	}
	return nil
}

// SnapshotsByUser returns the user's usage history, newest first.
func SnapshotsByUser(db *gorm.DB, userID uint) ([]UsageSnapshot, error) {
	var snapshots []UsageSnapshot
	if err := db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&snapshots).Error; err != nil {
		return nil, fmt.Errorf("store: snapshots by user: %w", err)
	}
	return snapshots, nil
}

// SnapshotCountByUser reports how many analyses the user has on record.
func SnapshotCountByUser(db *gorm.DB, userID uint) (int64, error) {
	var count int64
	if err := db.Model(&UsageSnapshot{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("store: snapshot count: %w", err)
	}
	return count, nil
}

// UserRank returns the user's 1-based position when ranking every user by the
// total cost of their latest snapshot, plus the number of ranked users.
// A user without snapshots gets rank 0.
func UserRank(db *gorm.DB, userID uint) (rank int, total int, err error) {
	var latest UsageSnapshot
	e := db.Where("user_id = ?", userID).Order("id DESC").First(&latest).Error
	if errors.Is(e, gorm.ErrRecordNotFound) {
		return 0, 0, nil
	}
	if e != nil {
		return 0, 0, fmt.Errorf("store: user rank: %w", e)
	}

	var total64 int64
	if e := db.Model(&UsageSnapshot{}).Distinct("user_id").Count(&total64).Error; e != nil {
		return 0, 0, fmt.Errorf("store: user rank: %w", e)
	}

	var ahead int64
	e = db.Raw(`
		SELECT COUNT(*) FROM usage_snapshots s
		JOIN (
			SELECT user_id, MAX(id) AS max_id
			FROM usage_snapshots
			GROUP BY user_id
		) latest ON s.id = latest.max_id
		WHERE s.total_cost > ?`, latest.TotalCost).Scan(&ahead).Error
	if e != nil {
		return 0, 0, fmt.Errorf("store: user rank: %w", e)
	}
	return int(ahead) + 1, int(total64), nil
}
