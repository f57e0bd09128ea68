package db

import (
	"time"

	"gorm.io/datatypes"
)

const DefaultCategoryName = "General"

type Word struct {
	ID           uint       `gorm:"primaryKey"`
	UserID       int64      `gorm:"not null;uniqueIndex:idx_user_term;index:idx_user_next_review"`
	CategoryID   *uint      `gorm:"index"`
	Term         string     `gorm:"not null;uniqueIndex:idx_user_term"`
	Translation  string     `gorm:"not null"`
	EaseFactor   float64    `gorm:"not null;default:2.5"`
	IntervalDays int        `gorm:"not null;default:1"`
	Repetitions  int        `gorm:"not null;default:0"`
	NextReview   *time.Time `gorm:"index:idx_user_next_review"`
	LastReviewed *time.Time
	LastQuality  *int
	Status       string `gorm:"not null;default:learning"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Category struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    int64  `gorm:"not null;uniqueIndex:idx_user_category"`
	Name      string `gorm:"not null;uniqueIndex:idx_user_category"`
	CreatedAt time.Time
}

type ReviewHistory struct {
	ID                uint   `gorm:"primaryKey"`
	UserID            int64  `gorm:"not null;index"`
	WordID            uint   `gorm:"not null;index"`
	SessionID         string `gorm:"index"`
	Quality           int    `gorm:"not null"`
	EaseBefore        float64
	EaseAfter         float64
	IntervalBefore    int
	IntervalAfter     int
	RepetitionsBefore int
	RepetitionsAfter  int
	DurationMillis    int64
	ReviewedAt        time.Time `gorm:"not null"`
}

func (ReviewHistory) TableName() string {
	return "review_history"
}

type LearningSession struct {
	ID              uint           `gorm:"primaryKey"`
	SessionID       string         `gorm:"not null;uniqueIndex"`
	UserID          int64          `gorm:"not null;index"`
	SessionType     string         `gorm:"not null"`
	WordIDs         datatypes.JSON `gorm:"not null"`
	StartedAt       time.Time      `gorm:"not null;index"`
	EndedAt         *time.Time
	EndedReason     *string
	WordsTotal      int `gorm:"not null;default:0"`
	WordsAnswered   int `gorm:"not null;default:0"`
	WordsCorrect    int `gorm:"not null;default:0"`
	Accuracy        float64
	DurationSeconds int
	LastActivityAt  time.Time `gorm:"not null;index"`
}

type UserSettings struct {
	ID                  uint  `gorm:"primaryKey"`
	UserID              int64 `gorm:"uniqueIndex"`
	RemindersEnabled    bool  `gorm:"not null;default:true"`
	ReminderHour        int   `gorm:"not null;default:9"`
	TimezoneOffsetHours int   `gorm:"not null;default:0"`
	LastReminderSentAt  *time.Time
	CreatedAt           time.Time
}

// Models lists every table managed by AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&Word{},
		&Category{},
		&ReviewHistory{},
		&LearningSession{},
		&UserSettings{},
	}
}
