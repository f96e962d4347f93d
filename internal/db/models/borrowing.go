package models

import "time"

// BorrowingStatus is the lifecycle state of one borrowing.
type BorrowingStatus string

const (
	// StatusBorrowed is an open borrowing.
	StatusBorrowed BorrowingStatus = "borrowed"
	// StatusReturned is a closed borrowing.
	StatusReturned BorrowingStatus = "returned"
	// StatusOverdue is an open borrowing past its due date.
	StatusOverdue BorrowingStatus = "overdue"
)

// MaxRenewals caps how often a borrowing may be renewed.
const MaxRenewals = 3

// Borrowing records one member taking out one book.
type Borrowing struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	BookID   uint `gorm:"not null;index" json:"book_id"`
	Book     Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
	MemberID uint `gorm:"not null;index" json:"member_id"`
	// Member is the borrowing member (loaded via foreign key).
	Member Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`

	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`

	Status       BorrowingStatus `gorm:"type:varchar(20);not null;default:'borrowed'" json:"status"`
	RenewalCount int             `gorm:"not null;default:0" json:"renewal_count"`
	Notes        string          `gorm:"size:500" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Borrowing model.
func (Borrowing) TableName() string {
	return "borrowings"
}

// IsOverdue reports whether an open borrowing is past its due date.
func (b *Borrowing) IsOverdue(now time.Time) bool {
	return b.Status == StatusBorrowed && b.DueDate.Before(now)
}

// CanRenew reports whether the borrowing may be renewed once more.
func (b *Borrowing) CanRenew(now time.Time) bool {
	return b.Status == StatusBorrowed && b.RenewalCount < MaxRenewals && !b.IsOverdue(now)
}
