// Package sqlstore keeps feeder configs in a SQLite database.
package sqlstore

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/robotalks/pnpfeeder/pkg/configstore"
	"github.com/robotalks/pnpfeeder/pkg/feeder"
)

type feederConfig struct {
	FeederIndex       uint32 `gorm:"primaryKey;autoIncrement:false"`
	AdvancedAngle     string
	HalfAdvancedAngle string
	RetractAngle      string
	FeedLength        string
	SettleTime        uint32
	Pwm0              string
	Pwm180            string
	IgnoreFeedbackPin bool
	AlwaysRetract     bool
}

func (feederConfig) TableName() string {
	return "feeder_configs"
}

func (c *feederConfig) record() *configstore.Record {
	return &configstore.Record{
		Index:             c.FeederIndex,
		AdvancedAngle:     c.AdvancedAngle,
		HalfAdvancedAngle: c.HalfAdvancedAngle,
		RetractAngle:      c.RetractAngle,
		FeedLength:        c.FeedLength,
		SettleTime:        c.SettleTime,
		Pwm0:              c.Pwm0,
		Pwm180:            c.Pwm180,
		IgnoreFeedbackPin: c.IgnoreFeedbackPin,
		AlwaysRetract:     c.AlwaysRetract,
	}
}

func rowFromRecord(r *configstore.Record) *feederConfig {
	return &feederConfig{
		FeederIndex:       r.Index,
		AdvancedAngle:     r.AdvancedAngle,
		HalfAdvancedAngle: r.HalfAdvancedAngle,
		RetractAngle:      r.RetractAngle,
		FeedLength:        r.FeedLength,
		SettleTime:        r.SettleTime,
		Pwm0:              r.Pwm0,
		Pwm180:            r.Pwm180,
		IgnoreFeedbackPin: r.IgnoreFeedbackPin,
		AlwaysRetract:     r.AlwaysRetract,
	}
}

// Store implements configstore.Store on gorm.
type Store struct {
	db *gorm.DB
}

// Open opens or creates the database file.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return New(db)
}

// New creates a Store on an opened database and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&feederConfig{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Get implements configstore.Store.
func (s *Store) Get(index int) (feeder.Config, error) {
	var row feederConfig
	err := s.db.Where("feeder_index = ?", index).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return configstore.DefaultConfig(), nil
	}
	if err != nil {
		return configstore.DefaultConfig(), fmt.Errorf("%w: %v", configstore.ErrConfigGet, err)
	}
	return row.record().Config()
}

// Set implements configstore.Store.
func (s *Store) Set(index int, config feeder.Config) error {
	row := rowFromRecord(configstore.NewRecord(index, config))
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error; err != nil {
		return fmt.Errorf("%w: %v", configstore.ErrConfigSet, err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
