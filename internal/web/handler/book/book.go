// Package book exposes the book inventory REST surface.
package book

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/shelfwise/shelfwise/internal/authz"
	"github.com/shelfwise/shelfwise/internal/config"
	"github.com/shelfwise/shelfwise/internal/db/models"
	"github.com/shelfwise/shelfwise/internal/web/handler"
)

const (
	// Path is the base path of the book routes.
	Path = handler.APIPath + "/books"
)

// orderColumns lists the sortable book columns.
var orderColumns = map[string]bool{ //nolint:gochecknoglobals
	"title":            true,
	"isbn":             true,
	"price":            true,
	"publication_year": true,
	"created_at":       true,
}

// Service is the book handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the book handler.
var Handler = Service{}

// Init initializes the book handler and registers its routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *authz.Service) error {
	if app == nil || cfg == nil || db == nil || authService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.validator = validator.New()

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath,
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceBooks), s.List)
		router.Get("/search",
			authz.RequirePermission(authService, authz.ActionSearch, authz.ResourceBooks), s.Search)
		router.Get("/:id",
			authz.RequirePermission(authService, authz.ActionView, authz.ResourceBooks), s.Get)
		router.Post(handler.RootPath,
			authz.RequirePermission(authService, authz.ActionCreate, authz.ResourceBooks), s.Create)
		router.Put("/:id",
			authz.RequirePermission(authService, authz.ActionUpdate, authz.ResourceBooks), s.Update)
		router.Delete("/:id",
			authz.RequirePermission(authService, authz.ActionDelete, authz.ResourceBooks), s.Delete)
	})

	return nil
}

// bookInput is the payload for creating or updating a book.
type bookInput struct {
	Title           string  `json:"title" validate:"required,max=255"`
	ISBN            string  `json:"isbn" validate:"required,max=20"`
	Description     string  `json:"description" validate:"max=2000"`
	PublisherName   string  `json:"publisher_name" validate:"max=255"`
	CoverImage      string  `json:"cover_image" validate:"max=255"`
	TotalCopies     int     `json:"total_copies" validate:"min=0"`
	Price           float64 `json:"price" validate:"min=0"`
	PublicationYear int     `json:"publication_year"`
	CanBorrow       *bool   `json:"can_borrow"`
	CanPurchase     *bool   `json:"can_purchase"`
	AuthorIDs       []uint  `json:"author_ids"`
	CategoryIDs     []uint  `json:"category_ids"`
}

// List returns a page of books with their authors and categories.
func (s *Service) List(c *fiber.Ctx) error {
	page, pageSize := handler.PageParams(c)

	tx := s.db.Model(&models.Book{})

	if category := c.QueryInt("category", 0); category > 0 {
		tx = tx.Where("id IN (SELECT book_id FROM book_category WHERE category_id = ?)", category)
	}

	if c.Query("available") == "true" {
		tx = tx.Where("available_copies > 0")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return handler.SendError(c, err)
	}

	orderBy := c.Query("sort", "title")
	if !orderColumns[orderBy] {
		orderBy = "title"
	}

	direction := "ASC"
	if c.Query("order") == "desc" {
		direction = "DESC"
	}

	var books []models.Book

	err := tx.Preload("Authors").Preload("Categories").
		Order(orderBy + " " + direction).
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&books).Error
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{
		"data":       books,
		"pagination": handler.NewPagination(page, pageSize, total),
	})
}

// Search matches books by title, ISBN or publisher name.
func (s *Service) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return handler.SendBadRequest(c, "missing search query")
	}

	page, pageSize := handler.PageParams(c)
	like := "%" + query + "%"

	tx := s.db.Model(&models.Book{}).
		Where("title LIKE ? OR isbn LIKE ? OR publisher_name LIKE ?", like, like, like)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return handler.SendError(c, err)
	}

	var books []models.Book

	err := tx.Preload("Authors").Preload("Categories").
		Order("title ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&books).Error
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{
		"data":       books,
		"pagination": handler.NewPagination(page, pageSize, total),
	})
}

// Get returns one book by id.
func (s *Service) Get(c *fiber.Ctx) error {
	bookID, err := c.ParamsInt("id")
	if err != nil || bookID < 1 {
		return handler.SendBadRequest(c, "invalid book id")
	}

	var book models.Book

	err = s.db.Preload("Authors").Preload("Categories").First(&book, bookID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "book not found"})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": book})
}

// Create adds a book to the inventory. New books start with all copies
// available.
func (s *Service) Create(c *fiber.Ctx) error {
	var input bookInput

	if err := c.BodyParser(&input); err != nil {
		return handler.SendBadRequest(c, "invalid request body")
	}

	if err := s.validator.Struct(input); err != nil {
		return handler.SendValidationError(c, err)
	}

	book := models.Book{
		Title:           input.Title,
		ISBN:            input.ISBN,
		Description:     input.Description,
		PublisherName:   input.PublisherName,
		CoverImage:      input.CoverImage,
		TotalCopies:     input.TotalCopies,
		AvailableCopies: input.TotalCopies,
		Price:           input.Price,
		PublicationYear: input.PublicationYear,
		CanBorrow:       true,
	}

	if input.CanBorrow != nil {
		book.CanBorrow = *input.CanBorrow
	}

	if input.CanPurchase != nil {
		book.CanPurchase = *input.CanPurchase
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64

		if err := tx.Model(&models.Book{}).Where("isbn = ?", input.ISBN).Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			return errDuplicateISBN
		}

		if err := tx.Create(&book).Error; err != nil {
			return err
		}

		return s.replaceAssociations(tx, &book, input.AuthorIDs, input.CategoryIDs)
	})
	if errors.Is(err, errDuplicateISBN) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": book})
}

// Update rewrites a book's attributes and associations. The available copy
// count shifts by the same amount as the total so open borrowings stay
// accounted for.
func (s *Service) Update(c *fiber.Ctx) error {
	bookID, err := c.ParamsInt("id")
	if err != nil || bookID < 1 {
		return handler.SendBadRequest(c, "invalid book id")
	}

	var input bookInput

	if err = c.BodyParser(&input); err != nil {
		return handler.SendBadRequest(c, "invalid request body")
	}

	if err = s.validator.Struct(input); err != nil {
		return handler.SendValidationError(c, err)
	}

	var book models.Book

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, bookID).Error; err != nil {
			return err
		}

		delta := input.TotalCopies - book.TotalCopies

		book.Title = input.Title
		book.ISBN = input.ISBN
		book.Description = input.Description
		book.PublisherName = input.PublisherName
		book.CoverImage = input.CoverImage
		book.TotalCopies = input.TotalCopies
		book.AvailableCopies += delta
		book.Price = input.Price
		book.PublicationYear = input.PublicationYear

		if book.AvailableCopies < 0 {
			book.AvailableCopies = 0
		}

		if input.CanBorrow != nil {
			book.CanBorrow = *input.CanBorrow
		}

		if input.CanPurchase != nil {
			book.CanPurchase = *input.CanPurchase
		}

		if err := tx.Save(&book).Error; err != nil {
			return err
		}

		return s.replaceAssociations(tx, &book, input.AuthorIDs, input.CategoryIDs)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "book not found"})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(fiber.Map{"data": book})
}

// Delete removes a book. Books with open borrowings are a conflict.
func (s *Service) Delete(c *fiber.Ctx) error {
	bookID, err := c.ParamsInt("id")
	if err != nil || bookID < 1 {
		return handler.SendBadRequest(c, "invalid book id")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var book models.Book

		if err := tx.First(&book, bookID).Error; err != nil {
			return err
		}

		var open int64

		err := tx.Model(&models.Borrowing{}).
			Where("book_id = ? AND status IN ?", bookID,
				[]models.BorrowingStatus{models.StatusBorrowed, models.StatusOverdue}).
			Count(&open).Error
		if err != nil {
			return err
		}

		if open > 0 {
			return errBookBorrowed
		}

		return tx.Delete(&book).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "book not found"})
	}

	if errors.Is(err, errBookBorrowed) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

var (
	errDuplicateISBN = errors.New("book with this ISBN already exists")
	errBookBorrowed  = errors.New("book has open borrowings")
)

// replaceAssociations rewrites the author and category links when the input
// carries them.
func (s *Service) replaceAssociations(tx *gorm.DB, book *models.Book, authorIDs, categoryIDs []uint) error {
	if authorIDs != nil {
		var authors []models.Author

		if err := tx.Find(&authors, authorIDs).Error; err != nil {
			return err
		}

		if err := tx.Model(book).Association("Authors").Replace(authors); err != nil {
			return err
		}
	}

	if categoryIDs != nil {
		var categories []models.Category

		if err := tx.Find(&categories, categoryIDs).Error; err != nil {
			return err
		}

		if err := tx.Model(book).Association("Categories").Replace(categories); err != nil {
			return err
		}
	}

	return nil
}
