package handler

const (
	// RootPath is the root path of a route group.
	RootPath = "/"

	// APIPath is the prefix shared by all JSON API routes.
	APIPath = "/api"

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"

	// DefaultPageSize is the default number of items per list page.
	DefaultPageSize = 25

	// MaxPageSize caps the per-page item count a client may request.
	MaxPageSize = 100
)
