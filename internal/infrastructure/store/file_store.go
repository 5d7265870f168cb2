// Package store persists the account list to a flat JSON file, rewriting it
// after every mutation. Load failures never prevent startup: the store falls
// back to an empty in-memory list and logs the cause.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/storewatch/storewatch/internal/core/domain"
	"github.com/storewatch/storewatch/internal/core/ports"
)

// FileStore implements ports.AccountStore on a single JSON file.
type FileStore struct {
	path string
	log  zerolog.Logger

	mu       sync.Mutex
	accounts []domain.Account
}

// NewFileStore loads path, creating it with an empty list when missing.
func NewFileStore(path string, log zerolog.Logger) *FileStore {
	s := &FileStore{path: path, log: log}
	s.load()
	return s
}

func (s *FileStore) load() {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Info().Str("path", s.path).Msg("accounts file missing, starting empty")
		s.accounts = []domain.Account{}
		s.persistLocked()
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("failed to read accounts file, starting empty")
		s.accounts = []domain.Account{}
		return
	}
	if err := json.Unmarshal(raw, &s.accounts); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("failed to parse accounts file, starting empty")
		s.accounts = []domain.Account{}
		return
	}
	s.log.Info().Int("accounts", len(s.accounts)).Msg("accounts loaded")
}

// persistLocked rewrites the file. Persistence errors are logged and the
// in-memory list stays authoritative.
func (s *FileStore) persistLocked() {
	data, err := json.MarshalIndent(s.accounts, "", "  ")
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode accounts")
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("failed to write accounts file")
	}
}

func (s *FileStore) List() []domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}

func (s *FileStore) Get(id int) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.ID == id {
			return acc, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (s *FileStore) Create(login, password string) (domain.Account, error) {
	if login == "" || password == "" {
		return domain.Account{}, domain.ErrInvalidAccount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.accounts {
		if acc.Login == login {
			return domain.Account{}, domain.ErrAccountExists
		}
	}

	maxID := 0
	for _, acc := range s.accounts {
		if acc.ID > maxID {
			maxID = acc.ID
		}
	}

	acc := domain.Account{
		ID:       maxID + 1,
		Login:    login,
		Password: password,
		Enabled:  true,
	}
	s.accounts = append(s.accounts, acc)
	sort.Slice(s.accounts, func(i, j int) bool { return s.accounts[i].ID < s.accounts[j].ID })
	s.persistLocked()
	s.log.Info().Int("account_id", acc.ID).Str("account", login).Msg("account created")
	return acc, nil
}

func (s *FileStore) Update(id int, upd ports.AccountUpdate) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.accounts {
		if s.accounts[i].ID != id {
			continue
		}
		if upd.Enabled != nil {
			s.accounts[i].Enabled = *upd.Enabled
		}
		if upd.Password != nil {
			if *upd.Password == "" {
				return domain.Account{}, domain.ErrInvalidAccount
			}
			s.accounts[i].Password = *upd.Password
		}
		s.persistLocked()
		return s.accounts[i], nil
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (s *FileStore) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, acc := range s.accounts {
		if acc.ID == id {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			s.persistLocked()
			s.log.Info().Int("account_id", id).Str("account", acc.Login).Msg("account deleted")
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

func (s *FileStore) Touch(id int, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.accounts {
		if s.accounts[i].ID == id {
			ts := t
			s.accounts[i].LastUsed = &ts
			s.persistLocked()
			return
		}
	}
}
