package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// ProfileKind tags the variant of a user's domain profile. Exactly one of
// the profile foreign keys is set for the matching kind; ProfileNone means
// the account has no domain profile (e.g. the seeded admin).
type ProfileKind string

const (
	// ProfileNone indicates the user has no attached domain profile.
	ProfileNone ProfileKind = "none"
	// ProfileAuthor indicates the user is a book author.
	ProfileAuthor ProfileKind = "author"
	// ProfileMember indicates the user is a library member.
	ProfileMember ProfileKind = "member"
	// ProfileLibrarian indicates the user is a librarian.
	ProfileLibrarian ProfileKind = "librarian"
)

// User represents an account in the system. Users hold roles through the
// user_roles junction table and carry a tagged profile variant instead of a
// runtime-typed polymorphic relation.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Active indicates whether the account can log in.
	Active bool `json:"active"`
	// Email is the unique login identifier.
	Email string `gorm:"unique;size:255;not null" json:"email"`
	// Password is the Argon2id hashed password.
	Password string `gorm:"size:255" json:"-"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:100" json:"first_name"`
	// LastName is the user's last or family name.
	LastName string `gorm:"size:100" json:"last_name"`
	// Phone is the user's contact number.
	Phone string `gorm:"size:50" json:"phone"`
	// Address is the user's postal address.
	Address string `gorm:"size:255" json:"address"`
	// BirthDate is the user's date of birth, if provided.
	BirthDate *time.Time `json:"birth_date,omitempty"`

	// ProfileKind selects which profile variant, if any, is attached.
	ProfileKind ProfileKind `gorm:"type:varchar(20);not null;default:'none'" json:"profile_kind"`
	// AuthorID is set when ProfileKind is ProfileAuthor.
	AuthorID *uint `json:"author_id,omitempty"`
	// Author is the attached author profile.
	Author *Author `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	// MemberID is set when ProfileKind is ProfileMember.
	MemberID *uint `json:"member_id,omitempty"`
	// Member is the attached member profile.
	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	// LibrarianID is set when ProfileKind is ProfileLibrarian.
	LibrarianID *uint `json:"librarian_id,omitempty"`
	// Librarian is the attached librarian profile.
	Librarian *Librarian `gorm:"foreignKey:LibrarianID" json:"librarian,omitempty"`

	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
	// DeletedAt is the soft delete timestamp (nil if not deleted, managed by GORM).
	DeletedAt *time.Time `json:"-"`
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating user passwords.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored
// hashed password using constant-time comparison.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
