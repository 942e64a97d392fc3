package datastore

import "time"

// Diagnosis is one persisted prediction.
type Diagnosis struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Label       string    `gorm:"size:128;index" json:"label"`
	Confidence  float64   `json:"confidence"`
	Remedy      string    `gorm:"size:512" json:"remedy"`
	SourceFile  string    `gorm:"size:255" json:"source_file"`
	ImageSHA256 string    `gorm:"size:64;index" json:"image_sha256"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
