package database

import (
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cuportal/smallgroups-api/internal/config"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	KeyID            uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date             string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount     int    `gorm:"default:0" json:"request_count"`
	TotalRegistrants int    `gorm:"default:0" json:"total_registrants"`
	TotalGroups      int    `gorm:"default:0" json:"total_groups"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegistrantRecord represents the registrants table, the stored roster
type RegistrantRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Phone       string    `gorm:"uniqueIndex;not null" json:"phone"`
	Name        string    `gorm:"not null" json:"name"`
	Residence   string    `gorm:"index" json:"residence"`
	YearOfStudy int       `json:"year_of_study"`
	Gender      string    `gorm:"size:8" json:"gender"`
	IsPastor    bool      `gorm:"default:false" json:"is_pastor"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (RegistrantRecord) TableName() string {
	return "registrants"
}

// GroupingRun represents the grouping_runs table. Roster is the snapshot the run was
// built from so it can be reshuffled; Result is the JSON-encoded GroupingResult.
type GroupingRun struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	ParentID        string    `gorm:"size:36;index" json:"parent_id,omitempty"`
	Seed            int64     `json:"seed"`
	TargetGroupSize int       `json:"target_group_size"`
	RegistrantCount int       `json:"registrant_count"`
	GroupCount      int       `json:"group_count"`
	Roster          string    `gorm:"type:text" json:"-"`
	Result          string    `gorm:"type:text" json:"-"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// Open connects to postgres when a URL is configured, otherwise to the sqlite file,
// and migrates the schema
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if cfg.URL != "" {
		gcfg.PrepareStmt = false
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.URL,
			PreferSimpleProtocol: true,
		}), gcfg)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("database: neither DATABASE_URL nor DATA_PATH is set")
		}
		db, err = gorm.Open(sqlite.Open(cfg.Path), gcfg)
	}
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}, &RegistrantRecord{}, &GroupingRun{}); err != nil {
		return nil, err
	}
	return db, nil
}
