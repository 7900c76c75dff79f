package types

import "errors"

// Declaration errors. These are returned when a table, category, or
// persistence backend is wired incorrectly; they never come from stale
// persisted state, which is ignored instead.
var (
	ErrUnknownOperator    = errors.New("unknown filter operator")
	ErrUnknownFilterKind  = errors.New("unknown filter kind")
	ErrInvalidCategoryKey = errors.New("invalid filter category key")
	ErrDuplicateCategory  = errors.New("duplicate filter category key")
	ErrUnknownStrategy    = errors.New("unknown persistence strategy")
	ErrMissingLocation    = errors.New("url persistence requires a location")
	ErrMissingStorage     = errors.New("storage persistence requires a storage")
	ErrMissingKey         = errors.New("persistence key must not be empty")
	ErrMissingSerializer  = errors.New("persistence requires serialize and deserialize")
	ErrMissingIDFunc      = errors.New("selection requires an id function")
	ErrMissingSortValues  = errors.New("client-side sorting requires a sort value function")
)

// Storage backend errors.
var (
	ErrDetached        = errors.New("storage backend is not attached")
	ErrAlreadyAttached = errors.New("storage backend is already attached")
	ErrSessionClosed   = errors.New("storage session is closed")
	ErrInvalidField    = errors.New("invalid field name")
)

// Hub client errors.
var (
	ErrNilClient   = errors.New("hub client is nil")
	ErrEmptyHubURL = errors.New("hub url is empty")
	ErrHubStatus   = errors.New("hub request failed")
)
