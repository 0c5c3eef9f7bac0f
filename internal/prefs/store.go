// Package prefs is the on-device persistence layer: playback preferences and
// saved resume positions, backed by a local sqlite file.
package prefs

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	keyIntroSkip        = "intro_skip_enabled"
	keyPreferredBitrate = "preferred_bitrate"
)

// Setting is a single key/value preference row.
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// ResumePoint is a saved playback position for an item.
type ResumePoint struct {
	ItemID        string `gorm:"primaryKey"`
	PositionTicks int64
	UpdatedAt     time.Time
}

// Store reads and writes preferences.
type Store struct {
	db     *gorm.DB
	logger hclog.Logger
}

// Open opens (and migrates) the preference database at path.
func Open(path string, logger hclog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open preference db: %w", err)
	}
	if err := db.AutoMigrate(&Setting{}, &ResumePoint{}); err != nil {
		return nil, fmt.Errorf("migrate preference db: %w", err)
	}
	return &Store{db: db, logger: logger.Named("prefs")}, nil
}

// IntroSkipEnabled reports whether the skip affordance is enabled. Defaults
// to true when unset.
func (s *Store) IntroSkipEnabled() bool {
	v, ok := s.get(keyIntroSkip)
	if !ok {
		return true
	}
	return v == "true"
}

// SetIntroSkipEnabled persists the skip affordance preference.
func (s *Store) SetIntroSkipEnabled(enabled bool) error {
	return s.set(keyIntroSkip, strconv.FormatBool(enabled))
}

// PreferredBitrate returns the user's streaming bitrate ceiling in bits per
// second, or 0 when unset.
func (s *Store) PreferredBitrate() int {
	v, ok := s.get(keyPreferredBitrate)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// SetPreferredBitrate persists the streaming bitrate ceiling.
func (s *Store) SetPreferredBitrate(bps int) error {
	return s.set(keyPreferredBitrate, strconv.Itoa(bps))
}

// ResumeTicks returns the saved resume position for an item, or 0.
func (s *Store) ResumeTicks(itemID string) int64 {
	var rp ResumePoint
	err := s.db.First(&rp, "item_id = ?", itemID).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("resume lookup failed", "item_id", itemID, "error", err)
		}
		return 0
	}
	return rp.PositionTicks
}

// SaveResumeTicks records the current position for an item.
func (s *Store) SaveResumeTicks(itemID string, ticks int64) error {
	rp := ResumePoint{ItemID: itemID, PositionTicks: ticks, UpdatedAt: time.Now()}
	return s.db.Save(&rp).Error
}

// ClearResume removes the saved position, typically after a watched-through.
func (s *Store) ClearResume(itemID string) error {
	return s.db.Delete(&ResumePoint{}, "item_id = ?", itemID).Error
}

func (s *Store) get(key string) (string, bool) {
	var row Setting
	err := s.db.First(&row, "key = ?", key).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("setting lookup failed", "key", key, "error", err)
		}
		return "", false
	}
	return row.Value, true
}

func (s *Store) set(key, value string) error {
	return s.db.Save(&Setting{Key: key, Value: value}).Error
}
