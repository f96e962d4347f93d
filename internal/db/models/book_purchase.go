package models

import "time"

// BookPurchase records one member buying copies of a book.
type BookPurchase struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	BookID   uint   `gorm:"not null;index" json:"book_id"`
	Book     Book   `gorm:"foreignKey:BookID" json:"book,omitempty"`
	MemberID uint   `gorm:"not null;index" json:"member_id"`
	Member   Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`

	// Reference is the external transaction reference (UUID).
	Reference string `gorm:"unique;size:40;not null" json:"reference"`

	Quantity     int       `gorm:"not null" json:"quantity"`
	UnitPrice    float64   `gorm:"not null" json:"unit_price"`
	TotalAmount  float64   `gorm:"not null" json:"total_amount"`
	PurchaseDate time.Time `json:"purchase_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the BookPurchase model.
func (BookPurchase) TableName() string {
	return "book_purchases"
}
