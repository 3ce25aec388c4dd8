package store

import (
	"context"
	"errors"

	"github.com/omgcreativity/laojia/internal/models"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// ErrUserExists is returned by CreateUser when the username is taken.
var ErrUserExists = errors.New("user already exists")

// ErrInvalidUsername is returned when a username contains path characters.
// The username is used verbatim as a directory name, and some callers (the
// bridge surface) receive it from unauthenticated requests.
var ErrInvalidUsername = errors.New("invalid username")

// Store defines the interface for persistence operations.
// This allows for mocking in tests and potential backend switching.
//
// Conversation logs are append-only: there is no delete, no random access
// and no per-message IDs. The only query patterns the assistant needs are
// "read everything" and "peek at the last entry".
type Store interface {
	// User operations
	GetUser(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error

	// Profile operations. A missing profile is a valid state and loads as
	// the zero Profile, not an error.
	SaveProfile(ctx context.Context, username string, profile models.Profile) error
	LoadProfile(ctx context.Context, username string) (models.Profile, error)

	// Conversation operations. ReadConversation returns an empty slice for
	// users with no log; a malformed persisted log also reads as empty
	// rather than failing, trading history loss for availability.
	AppendMessage(ctx context.Context, username string, msg models.Message) error
	ReadConversation(ctx context.Context, username string) ([]models.Message, error)
	SaveConversation(ctx context.Context, username string, messages []models.Message) error

	// SaveImage stores raw image bytes in the user's private image area and
	// returns the relative path to reference from a message part.
	SaveImage(ctx context.Context, username string, data []byte) (string, error)
}
