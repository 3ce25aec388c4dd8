package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/omgcreativity/laojia/internal/models"
	"github.com/omgcreativity/laojia/internal/store"
)

// FileStore implements store.Store on top of a flat per-user directory
// layout:
//
//	<root>/users.json                  username -> account record
//	<root>/users/<name>/profile.json   questionnaire answers
//	<root>/users/<name>/memory.json    conversation log (JSON array)
//	<root>/users/<name>/images/        private image attachments
//
// This layout is the single source of truth shared with the relay worker
// (through the HTTP bridge) and must stay stable.
//
// All writes go through a temp-file-and-rename so a reader never observes a
// partially written file. A per-user mutex serializes read-modify-write
// cycles within this process; it does NOT protect against a second process
// writing the same directory (last-write-wins in that case).
type FileStore struct {
	root string

	usersMu sync.Mutex // guards users.json

	mu    sync.Mutex // guards locks
	locks map[string]*sync.Mutex
}

// NewFileStore initializes the directory layout under root and returns the
// store.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(root, "users"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &FileStore{
		root:  root,
		locks: make(map[string]*sync.Mutex),
	}

	usersPath := s.usersPath()
	if _, err := os.Stat(usersPath); os.IsNotExist(err) {
		if err := writeJSONAtomic(usersPath, map[string]models.User{}); err != nil {
			return nil, fmt.Errorf("failed to initialize users file: %w", err)
		}
	}

	return s, nil
}

// validUsername rejects names that could escape the data root when joined
// into a path. Registration enforces the same rule, but the bridge surface
// accepts usernames from unauthenticated query parameters, so the store must
// not trust its callers.
func validUsername(username string) bool {
	return username != "" && !strings.ContainsAny(username, "/\\.")
}

func (s *FileStore) usersPath() string {
	return filepath.Join(s.root, "users.json")
}

func (s *FileStore) userDir(username string) string {
	return filepath.Join(s.root, "users", username)
}

func (s *FileStore) profilePath(username string) string {
	return filepath.Join(s.userDir(username), "profile.json")
}

func (s *FileStore) memoryPath(username string) string {
	return filepath.Join(s.userDir(username), "memory.json")
}

func (s *FileStore) imagesDir(username string) string {
	return filepath.Join(s.userDir(username), "images")
}

// userLock returns the mutex serializing writes for one user's files.
func (s *FileStore) userLock(username string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[username]
	if !ok {
		l = &sync.Mutex{}
		s.locks[username] = l
	}
	return l
}

func (s *FileStore) readUsers() (map[string]models.User, error) {
	data, err := os.ReadFile(s.usersPath())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]models.User{}, nil
		}
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	users := map[string]models.User{}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}
	return users, nil
}

// GetUser returns the account record for username, or store.ErrNotFound.
func (s *FileStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	if !validUsername(username) {
		return nil, store.ErrInvalidUsername
	}

	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return nil, err
	}

	user, ok := users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	user.Username = username
	return &user, nil
}

// CreateUser registers a new account and creates its private directory.
// Returns store.ErrUserExists when the username is taken.
func (s *FileStore) CreateUser(ctx context.Context, user *models.User) error {
	if !validUsername(user.Username) {
		return store.ErrInvalidUsername
	}

	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return err
	}

	if _, ok := users[user.Username]; ok {
		return store.ErrUserExists
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	users[user.Username] = *user

	if err := writeJSONAtomic(s.usersPath(), users); err != nil {
		return fmt.Errorf("failed to write users file: %w", err)
	}

	if err := os.MkdirAll(s.userDir(user.Username), 0o755); err != nil {
		return fmt.Errorf("failed to create user directory: %w", err)
	}
	return nil
}

// SaveProfile persists the user's profile.
func (s *FileStore) SaveProfile(ctx context.Context, username string, profile models.Profile) error {
	if !validUsername(username) {
		return store.ErrInvalidUsername
	}
	if err := os.MkdirAll(s.userDir(username), 0o755); err != nil {
		return fmt.Errorf("failed to create user directory: %w", err)
	}
	if err := writeJSONAtomic(s.profilePath(username), profile); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// LoadProfile returns the user's profile. A missing profile file is a valid
// state and loads as the zero Profile.
func (s *FileStore) LoadProfile(ctx context.Context, username string) (models.Profile, error) {
	var profile models.Profile
	if !validUsername(username) {
		return profile, store.ErrInvalidUsername
	}

	data, err := os.ReadFile(s.profilePath(username))
	if err != nil {
		if os.IsNotExist(err) {
			return profile, nil
		}
		return profile, fmt.Errorf("failed to read profile: %w", err)
	}

	if err := json.Unmarshal(data, &profile); err != nil {
		return models.Profile{}, fmt.Errorf("failed to parse profile: %w", err)
	}
	return profile, nil
}

// writeJSONAtomic marshals v and writes it to path via a temp file in the
// same directory followed by a rename, so readers never observe a partial
// write and a failed write never corrupts the previous content.
func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

var _ store.Store = (*FileStore)(nil)

var errUnsupportedImage = errors.New("unsupported image format")
