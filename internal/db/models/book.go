package models

import "time"

// Book is one title in the library inventory. Copy counts track physical
// stock: AvailableCopies goes down when a borrowing opens and back up when
// it is returned.
type Book struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Title         string `gorm:"size:255;not null;index" json:"title"`
	ISBN          string `gorm:"unique;size:20;not null" json:"isbn"`
	Description   string `gorm:"size:2000" json:"description"`
	PublisherName string `gorm:"size:255" json:"publisher_name"`
	CoverImage    string `gorm:"size:255" json:"cover_image"`

	TotalCopies     int `gorm:"not null;default:0" json:"total_copies"`
	AvailableCopies int `gorm:"not null;default:0" json:"available_copies"`

	Price           float64    `json:"price"`
	PublicationYear int        `json:"publication_year"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`

	// CanBorrow marks the title as borrowable; CanPurchase as sellable.
	CanBorrow   bool `gorm:"default:true" json:"can_borrow"`
	CanPurchase bool `gorm:"default:false" json:"can_purchase"`

	Authors    []Author   `gorm:"many2many:author_book" json:"authors,omitempty"`
	Categories []Category `gorm:"many2many:book_category" json:"categories,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Book model.
func (Book) TableName() string {
	return "books"
}

// Available reports whether at least one copy is in stock.
func (b *Book) Available() bool {
	return b.AvailableCopies > 0
}
