package room

import (
	"errors"
	"sync"
)

var ErrNotFound = errors.New("room not found")

// Store exposes room lookups and membership changes.
type Store interface {
	List() []Room
	FindByID(id string) (Room, bool)
	FindByAccessCode(code string) (Room, bool)
	AddMember(roomID, userID string) (Room, error)
}

// MemoryStore keeps rooms in insertion order behind a RWMutex.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Room
}

// NewMemoryStore validates and loads the supplied rooms.
func NewMemoryStore(items []Room) (*MemoryStore, error) {
	store := &MemoryStore{items: make([]Room, 0, len(items))}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[item.ID]; dup {
			return nil, errors.New("duplicate room id " + item.ID)
		}
		seen[item.ID] = struct{}{}
		store.items = append(store.items, clone(item))
	}
	return store, nil
}

// List returns every room.
func (s *MemoryStore) List() []Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Room, len(s.items))
	for i, item := range s.items {
		out[i] = clone(item)
	}
	return out
}

// FindByID looks up a room by identifier.
func (s *MemoryStore) FindByID(id string) (Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		return clone(s.items[idx]), true
	}
	return Room{}, false
}

// FindByAccessCode returns the private room whose code matches exactly.
func (s *MemoryStore) FindByAccessCode(code string) (Room, bool) {
	if code == "" {
		return Room{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.IsPrivate && item.AccessCode == code {
			return clone(item), true
		}
	}
	return Room{}, false
}

// AddMember adds userID to the room if it is not already a member.
func (s *MemoryStore) AddMember(roomID, userID string) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(roomID)
	if idx < 0 {
		return Room{}, ErrNotFound
	}
	if !s.items[idx].HasMember(userID) {
		s.items[idx].Members = append(s.items[idx].Members, userID)
	}
	return clone(s.items[idx]), nil
}

func (s *MemoryStore) indexOf(id string) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func clone(r Room) Room {
	r.Members = append([]string(nil), r.Members...)
	return r
}
