package auth

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shelfwise/shelfwise/internal/authz"
	"github.com/shelfwise/shelfwise/internal/db/models"
)

// Provider handles local database authentication and account registration.
type Provider struct {
	db *gorm.DB

	// DefaultBorrowLimit is applied to newly registered member profiles.
	DefaultBorrowLimit int
}

// NewProvider creates a new authentication provider.
func NewProvider(db *gorm.DB) *Provider {
	return &Provider{
		db:                 db,
		DefaultBorrowLimit: 5,
	}
}

// Authenticate authenticates a user against the local database.
func (p *Provider) Authenticate(email, password string) (*models.User, error) {
	var user models.User

	err := p.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	if !user.VerifyPassword(password) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// RegisterInput is the payload for creating a new account with its domain
// profile.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`

	// Kind selects the profile variant to create alongside the account.
	Kind models.ProfileKind `json:"-"`

	// Bio and Nationality apply to author registrations.
	Bio         string `json:"bio"`
	Nationality string `json:"nationality"`
}

// Register creates a user, its profile variant and the matching default role
// assignment in one transaction. The role is addressed by its reserved name:
// members get Member, authors get Author, librarians get Librarian.
func (p *Provider) Register(input RegisterInput) (*models.User, error) {
	var created models.User

	err := p.db.Transaction(func(tx *gorm.DB) error {
		var count int64

		if err := tx.Model(&models.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}

		if count > 0 {
			return ErrEmailExists
		}

		created = models.User{
			Active:      true,
			Email:       input.Email,
			Password:    models.HashPassword(input.Password),
			FirstName:   input.FirstName,
			LastName:    input.LastName,
			Phone:       input.Phone,
			Address:     input.Address,
			ProfileKind: input.Kind,
		}

		var roleTag authz.RoleTag

		switch input.Kind {
		case models.ProfileMember:
			member := models.Member{
				MembershipDate: time.Now(),
				Status:         models.MemberActive,
				MaxBorrowLimit: p.DefaultBorrowLimit,
			}
			if err := tx.Create(&member).Error; err != nil {
				return fmt.Errorf("failed to create member profile: %w", err)
			}

			created.MemberID = &member.ID
			roleTag = authz.RoleMember
		case models.ProfileAuthor:
			author := models.Author{Bio: input.Bio, Nationality: input.Nationality}
			if err := tx.Create(&author).Error; err != nil {
				return fmt.Errorf("failed to create author profile: %w", err)
			}

			created.AuthorID = &author.ID
			roleTag = authz.RoleAuthor
		case models.ProfileLibrarian:
			librarian := models.Librarian{HireDate: time.Now()}
			if err := tx.Create(&librarian).Error; err != nil {
				return fmt.Errorf("failed to create librarian profile: %w", err)
			}

			created.LibrarianID = &librarian.ID
			roleTag = authz.RoleLibrarian
		case models.ProfileNone:
			roleTag = ""
		default:
			return ErrUnknownProfileKind
		}

		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		if roleTag != "" {
			var role models.Role

			err := tx.Where("name = ?", string(roleTag)).First(&role).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return authz.ErrRoleNotFound
			}

			if err != nil {
				return fmt.Errorf("failed to load default role: %w", err)
			}

			link := models.UserRole{UserID: created.ID, RoleID: role.ID}
			if err = tx.Create(&link).Error; err != nil {
				return fmt.Errorf("failed to assign default role: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// ChangePassword verifies the old password and stores a new hash.
func (p *Provider) ChangePassword(userID uint64, oldPassword, newPassword string) error {
	var user models.User

	err := p.db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return authz.ErrUserNotFound
	}

	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if !user.VerifyPassword(oldPassword) {
		return ErrInvalidCredentials
	}

	return p.db.Model(&user).Update("password", models.HashPassword(newPassword)).Error
}
