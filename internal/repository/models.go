package repository

import "time"

// Image is a processed upload with its detection results.
type Image struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Filename  string    `gorm:"size:255;uniqueIndex;not null" json:"filename"`
	StoredKey string    `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	Tags  []Tag          `gorm:"many2many:image_tags" json:"tags"`
	Texts []DetectedText `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Tag categorizes images. Names are stored lowercase; the unique index is
// what makes concurrent insert-or-get of the same tag safe.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"size:50;uniqueIndex;not null" json:"name"`
}

// DetectedText is one OCR text region of an image.
type DetectedText struct {
	ID         uint    `gorm:"primaryKey" json:"-"`
	ImageID    uint    `gorm:"index;not null" json:"-"`
	Text       string  `gorm:"index;not null" json:"text"`
	Confidence float64 `gorm:"not null" json:"confidence"`
	BBox       string  `gorm:"size:255" json:"bbox,omitempty"` // JSON-encoded [x1,y1,...]
}

// TagCount pairs a tag name with the number of images carrying it.
type TagCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
