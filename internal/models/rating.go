package models

import (
	"time"
)

// RatingRecord is a player's durable rating summary. Records are created
// lazily on the first reported result and never deleted here.
type RatingRecord struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	Player    string    `gorm:"uniqueIndex;not null" json:"player"`
	Rating    int       `gorm:"not null;index" json:"rating"`
	Wins      int       `gorm:"not null;default:0" json:"wins"`
	Losses    int       `gorm:"not null;default:0" json:"losses"`
	Draws     int       `gorm:"not null;default:0" json:"draws"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName specifies the table name for GORM
func (RatingRecord) TableName() string {
	return "rating_records"
}
