package models

import "time"

// Category groups books by genre or subject.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"unique;size:100;not null" json:"name"`
	Description string `gorm:"size:500" json:"description"`

	Books []Book `gorm:"many2many:book_category" json:"books,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Category model.
func (Category) TableName() string {
	return "categories"
}
