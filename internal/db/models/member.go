package models

import "time"

// MemberStatus is the lifecycle state of a library membership.
type MemberStatus string

const (
	// MemberActive can borrow and purchase books.
	MemberActive MemberStatus = "active"
	// MemberSuspended is temporarily barred from borrowing.
	MemberSuspended MemberStatus = "suspended"
)

// Member is the domain profile of a library member.
type Member struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	MembershipDate time.Time    `json:"membership_date"`
	Status         MemberStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	// MaxBorrowLimit caps the member's concurrently open borrowings.
	MaxBorrowLimit int `gorm:"not null;default:5" json:"max_borrow_limit"`

	Borrowings []Borrowing `gorm:"foreignKey:MemberID" json:"borrowings,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Member model.
func (Member) TableName() string {
	return "members"
}
