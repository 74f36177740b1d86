package profile

import "testing"

func TestStoreLookups(t *testing.T) {
	store := NewMemoryStore(Seed())

	if p, ok := store.FindByID("u3"); !ok || p.Role != RoleAdmin {
		t.Fatalf("expected admin u3, got %+v ok=%v", p, ok)
	}
	if _, ok := store.FindByID("nobody"); ok {
		t.Fatal("unexpected profile")
	}

	first := Seed()[0]
	if p, ok := store.FindByFriendCode(first.FriendCode); !ok || p.ID != first.ID {
		t.Fatalf("friend code lookup failed: %+v", p)
	}
}

func TestOthersExcludesRequester(t *testing.T) {
	others := Others(NewMemoryStore(Seed()), "u1")
	if len(others) != 3 {
		t.Fatalf("expected 3 profiles, got %d", len(others))
	}
	for _, p := range others {
		if p.ID == "u1" {
			t.Fatal("requester included")
		}
	}
}

func TestRoles(t *testing.T) {
	if Role("king").Valid() {
		t.Fatal("unknown role must be invalid")
	}
	if RoleUser.CanModerate() {
		t.Fatal("plain users cannot moderate")
	}
	for _, r := range []Role{RoleModerator, RoleAdmin, RoleOwner} {
		if !r.CanModerate() {
			t.Fatalf("%s should moderate", r)
		}
	}
}
