package kvstore

import (
	"errors"

	"github.com/harrisonrobin/nextup/pkg/model"
)

const (
	keyToken           = "token"
	keySelectedContext = "settings.selectedContext"
	keyCache           = "cache"
)

// Cache is the offline snapshot restored before the first fetch.
type Cache struct {
	Tasks    []*model.Task        `json:"tasks"`
	Contexts []model.Context      `json:"contexts"`
	Activity []model.TaskActivity `json:"activity"`
	// Timezone is the profile timezone name the snapshot was taken in.
	Timezone string `json:"timezone,omitempty"`
}

// Token returns the stored API token, "" when none is stored.
func (s *Store) Token() (string, error) {
	var tok string
	if err := s.Get(keyToken, &tok); err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}
	return tok, nil
}

// SetToken stores the API token. An empty token removes it.
func (s *Store) SetToken(tok string) error {
	if tok == "" {
		return s.Delete(keyToken)
	}
	return s.Set(keyToken, tok)
}

// SelectedContext returns the persisted container filter, "" for all.
func (s *Store) SelectedContext() (string, error) {
	var id string
	if err := s.Get(keySelectedContext, &id); err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}
	return id, nil
}

// SetSelectedContext persists the container filter.
func (s *Store) SetSelectedContext(id string) error {
	if id == "" {
		return s.Delete(keySelectedContext)
	}
	return s.Set(keySelectedContext, id)
}

// LoadCache returns the offline snapshot. A missing snapshot is empty, not an error.
func (s *Store) LoadCache() (Cache, error) {
	var c Cache
	if err := s.Get(keyCache, &c); err != nil && !errors.Is(err, ErrNotFound) {
		return Cache{}, err
	}
	return c, nil
}

// SaveCache replaces the offline snapshot.
func (s *Store) SaveCache(c Cache) error {
	return s.Set(keyCache, c)
}

// Clear removes the token, settings and cache.
func (s *Store) Clear() error {
	return errors.Join(
		s.Delete(keyToken),
		s.Delete(keySelectedContext),
		s.Delete(keyCache),
	)
}
