package store

import "time"

// User is a registered account. Password holds the bcrypt hash.
type User struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Email     string `gorm:"size:255;uniqueIndex;not null"`
	Password  string `gorm:"size:255;not null"`
	FullName  string `gorm:"size:255"`
	CreatedAt time.Time
}

// Invoice is one self-reported billing entry for the value-for-money view.
type Invoice struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    uint      `gorm:"index;not null"`
	Date      time.Time `gorm:"not null"`
	Amount    float64   `gorm:"not null"`
	CreatedAt time.Time
}

// UsageSnapshot captures the aggregate statistics of one completed,
// authenticated analysis. Rows are insert-only history.
type UsageSnapshot struct {
	ID                          uint `gorm:"primaryKey;autoIncrement"`
	UserID                      uint `gorm:"index;not null"`
	TotalConversations          int
	TotalWords                  int
	TotalInputTokens            int64
	TotalOutputTokens           int64
	TotalMessages               int
	AverageWordsPerConversation float64
	TotalCost                   float64
	CreatedAt                   time.Time
}
