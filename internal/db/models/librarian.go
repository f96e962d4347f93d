package models

import "time"

// Librarian is the domain profile of a staff librarian.
type Librarian struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	HireDate time.Time `json:"hire_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Librarian model.
func (Librarian) TableName() string {
	return "librarians"
}
