// Package models contains the database model definitions.
package models

import (
	"time"
)

// Favorite marks one generated record as a favorite.
// Records are identified by their index within a step domain; the
// signature names that domain so favorites from a different enumeration
// are never applied to the wrong combination.
// Table: favorites
type Favorite struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Signature   string    `gorm:"column:signature;uniqueIndex:idx_favorite_record"`
	RecordIndex int       `gorm:"column:record_index;uniqueIndex:idx_favorite_record"`
	Channels    string    `gorm:"column:channels"` // canonical "R85 G0 B255 W0 A170" for humans reading the table
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Favorite) TableName() string { return "favorites" }

// Setting represents a system setting.
// Table: settings
type Setting struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Key       string    `gorm:"column:key;uniqueIndex"`
	Value     string    `gorm:"column:value"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Setting) TableName() string { return "settings" }

// All returns one value of every model, for migrations.
func All() []interface{} {
	return []interface{}{
		&Favorite{},
		&Setting{},
	}
}
