package profile

import "strings"

// Store exposes the profile directory to services and handlers.
type Store interface {
	List() []Profile
	FindByID(id string) (Profile, bool)
	FindByFriendCode(code string) (Profile, bool)
}

// MemoryStore implements Store with an in-memory slice. Profiles are immutable
// for the lifetime of the process, so no locking is needed.
type MemoryStore struct {
	items []Profile
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied profiles.
func NewMemoryStore(items []Profile) *MemoryStore {
	copied := make([]Profile, len(items))
	for i, item := range items {
		copied[i] = clone(item)
	}
	return &MemoryStore{items: copied}
}

// List returns the directory in seed order.
func (s *MemoryStore) List() []Profile {
	out := make([]Profile, len(s.items))
	for i, item := range s.items {
		out[i] = clone(item)
	}
	return out
}

// FindByID looks up a profile by identifier.
func (s *MemoryStore) FindByID(id string) (Profile, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return clone(item), true
		}
	}
	return Profile{}, false
}

// FindByFriendCode looks up a profile by its invite code, ignoring case.
func (s *MemoryStore) FindByFriendCode(code string) (Profile, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Profile{}, false
	}
	for _, item := range s.items {
		if strings.EqualFold(item.FriendCode, code) {
			return clone(item), true
		}
	}
	return Profile{}, false
}

// Others returns every profile in the directory except the one with excludeID.
func Others(store Store, excludeID string) []Profile {
	all := store.List()
	out := make([]Profile, 0, len(all))
	for _, p := range all {
		if p.ID != excludeID {
			out = append(out, p)
		}
	}
	return out
}

func clone(p Profile) Profile {
	p.Interests = append([]string(nil), p.Interests...)
	return p
}
