package handlers

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/wordbase/wordbase/internal/models"
	"github.com/wordbase/wordbase/internal/server/storage"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (s *fakeUserStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return storage.ErrUserAlreadyExists
		}
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (s *fakeUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[user.ID]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.Nickname = user.Nickname
	u.Tagline = user.Tagline
	u.AvatarID = user.AvatarID
	return nil
}

type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]*models.RefreshToken)}
}

func (s *fakeTokenStore) SaveToken(_ context.Context, token *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *token
	s.tokens[token.Token] = &clone
	return nil
}

func (s *fakeTokenStore) GetToken(_ context.Context, token string) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok || t.ExpiresAt.Before(time.Now()) {
		return nil, storage.ErrTokenNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *fakeTokenStore) DeleteToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

func (s *fakeTokenStore) DeleteUserTokens(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, t := range s.tokens {
		if t.UserID == userID {
			delete(s.tokens, k)
		}
	}
	return nil
}

type fakeEntryStore struct {
	mu      sync.Mutex
	entries map[models.EntryKey]*models.DataEntry
}

func newFakeEntryStore() *fakeEntryStore {
	return &fakeEntryStore{entries: make(map[models.EntryKey]*models.DataEntry)}
}

func entryMatches(e *models.DataEntry, f storage.EntryFilter) bool {
	if len(f.Owners) > 0 && !slices.Contains(f.Owners, e.Owner) {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, e.Category) {
		return false
	}
	if slices.Contains(f.NotCategories, e.Category) {
		return false
	}
	if len(f.Names) > 0 && !slices.Contains(f.Names, e.Name) {
		return false
	}
	if f.SyncedAfter != nil && e.SyncAt <= *f.SyncedAfter {
		return false
	}
	return true
}

func (s *fakeEntryStore) Find(_ context.Context, filters []storage.EntryFilter) ([]*models.DataEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.DataEntry
	for _, e := range s.entries {
		for _, f := range filters {
			if entryMatches(e, f) {
				clone := *e
				out = append(out, &clone)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeEntryStore) Upsert(_ context.Context, entry *models.DataEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *entry
	s.entries[entry.Key()] = &clone
	return nil
}

func (s *fakeEntryStore) Load(_ context.Context, key models.EntryKey) (*models.DataEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, storage.ErrEntryNotFound
	}
	clone := *e
	return &clone, nil
}

func (s *fakeEntryStore) Save(_ context.Context, entry *models.DataEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.Key()]; !ok {
		return storage.ErrEntryNotFound
	}
	clone := *entry
	s.entries[entry.Key()] = &clone
	return nil
}

type fakeFileStore struct {
	mu    sync.Mutex
	files map[string]*models.StoredFile
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: make(map[string]*models.StoredFile)}
}

func (s *fakeFileStore) PutFile(_ context.Context, file *models.StoredFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *file
	s.files[file.ID] = &clone
	return nil
}

func (s *fakeFileStore) GetFile(_ context.Context, id string) (*models.StoredFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return nil, storage.ErrFileNotFound
	}
	clone := *f
	return &clone, nil
}

type fakeVersionStore struct {
	mu       sync.Mutex
	versions []*models.AppVersion
}

func (s *fakeVersionStore) PublishVersion(_ context.Context, version *models.AppVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *version
	s.versions = append(s.versions, &clone)
	return nil
}

func (s *fakeVersionStore) LatestVersion(_ context.Context, platform string, beta bool) (*models.AppVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.AppVersion
	for _, v := range s.versions {
		if v.Platform != platform {
			continue
		}
		if v.Beta && !beta {
			continue
		}
		if latest == nil || v.Timestamp >= latest.Timestamp {
			latest = v
		}
	}
	if latest == nil {
		return nil, storage.ErrVersionNotFound
	}
	clone := *latest
	return &clone, nil
}
