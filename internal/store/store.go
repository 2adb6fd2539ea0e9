package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/reel/internal/domain"
)

var _ domain.CredentialStore = (*SessionStore)(nil)

var bucketSession = []byte("session")

// storedCredential is the on-disk form of a credential
type storedCredential struct {
	Token    string    `json:"token"`
	Username string    `json:"username"`
	SavedAt  time.Time `json:"saved_at"`
}

// SessionStore implements domain.CredentialStore using BoltDB.
// Credentials are keyed per server so switching server.url does not reuse a token.
type SessionStore struct {
	db  *bolt.DB
	key string
	mu  sync.RWMutex // Protects memory cache

	// In-memory copy, promoted on first read
	cache map[string][]byte
}

// NewSessionStore opens (or creates) the store at path. An empty path keeps
// the credential in memory only.
func NewSessionStore(path, serverURL string) (*SessionStore, error) {
	s := &SessionStore{key: "cred:" + hashServerURL(serverURL), cache: make(map[string][]byte)}
	if path == "" {
		return s, nil
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSession)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

// Close releases the underlying database
func (s *SessionStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadCredential returns the stored credential for this server
func (s *SessionStore) LoadCredential() (domain.Credential, bool) {
	var stored storedCredential
	if !s.get(s.key, &stored) || stored.Token == "" {
		return domain.Credential{}, false
	}
	return domain.Credential{Token: stored.Token, Username: stored.Username}, true
}

// SaveCredential persists cred, replacing any previous credential
func (s *SessionStore) SaveCredential(cred domain.Credential) error {
	return s.set(s.key, storedCredential{
		Token:    cred.Token,
		Username: cred.Username,
		SavedAt:  time.Now().UTC(),
	})
}

// ClearCredential removes the stored credential (logout)
func (s *SessionStore) ClearCredential() error {
	return s.delete(s.key)
}

func (s *SessionStore) get(key string, dest any) bool {
	s.mu.RLock()
	if data, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *SessionStore) set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSession).Put([]byte(key), data)
	})
}

func (s *SessionStore) delete(key string) error {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}
