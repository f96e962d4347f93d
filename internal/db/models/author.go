package models

import "time"

// Author is the domain profile of a book author.
type Author struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Bio         string     `gorm:"size:2000" json:"bio"`
	Nationality string     `gorm:"size:100" json:"nationality"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	// Books are the titles written by this author.
	Books []Book `gorm:"many2many:author_book" json:"books,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Author model.
func (Author) TableName() string {
	return "authors"
}
