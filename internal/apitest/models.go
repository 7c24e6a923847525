package apitest

import "time"

// row is one stored backend record. Data holds the JSON object the REST API
// exposes, without the computed fields.
type row struct {
	ID        uint   `gorm:"primaryKey"`
	UID       string `gorm:"size:36;uniqueIndex;not null"`
	Resource  string `gorm:"size:64;index;not null"`
	Data      string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// attachment is an uploaded file served under /media/.
type attachment struct {
	ID          uint   `gorm:"primaryKey"`
	Path        string `gorm:"size:255;uniqueIndex;not null"`
	ContentType string `gorm:"size:100"`
	Data        []byte
}

// counter hands out document numbers per resource and year.
type counter struct {
	Resource string `gorm:"primaryKey;size:64"`
	Year     int    `gorm:"primaryKey"`
	Last     int    `gorm:"not null"`
}
