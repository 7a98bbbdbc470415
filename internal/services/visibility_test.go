package services

import (
	"context"
	"errors"
	"testing"
)

// fakeIdentity is an in-memory IdentityLookup keyed by user id.
type fakeIdentity struct {
	families map[string]string
	err      error
}

func (f *fakeIdentity) FamilyOf(_ context.Context, userID string) (*string, error) {
	if f.err != nil {
		return nil, f.err
	}
	id, ok := f.families[userID]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func (f *fakeIdentity) MembersOf(_ context.Context, familyID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var ids []string
	for user, fam := range f.families {
		if fam == familyID {
			ids = append(ids, user)
		}
	}
	return ids, nil
}

func TestResolveOwnerSet(t *testing.T) {
	identity := &fakeIdentity{families: map[string]string{"alice": "f1", "bob": "f1", "carol": "f2"}}
	r := NewVisibilityResolver(identity)
	ctx := context.Background()

	t.Run("own_only", func(t *testing.T) {
		owners, err := r.ResolveOwnerSet(ctx, "alice", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(owners) != 1 || owners[0] != "alice" {
			t.Errorf("expected [alice], got %v", owners)
		}
	})

	t.Run("family", func(t *testing.T) {
		owners, err := r.ResolveOwnerSet(ctx, "alice", true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(owners) != 2 || owners[0] != "alice" {
			t.Errorf("expected alice first with bob, got %v", owners)
		}
		for _, id := range owners {
			if id == "carol" {
				t.Error("carol belongs to another family")
			}
		}
	})

	t.Run("no_family_falls_back_to_self", func(t *testing.T) {
		owners, err := r.ResolveOwnerSet(ctx, "dave", true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(owners) != 1 || owners[0] != "dave" {
			t.Errorf("expected [dave], got %v", owners)
		}
	})

	t.Run("lookup_error", func(t *testing.T) {
		broken := NewVisibilityResolver(&fakeIdentity{err: errors.New("db down")})
		if _, err := broken.ResolveOwnerSet(ctx, "alice", true); err == nil {
			t.Fatal("expected lookup error to propagate")
		}
	})
}

func TestResolveAccess(t *testing.T) {
	identity := &fakeIdentity{families: map[string]string{"alice": "f1", "bob": "f1", "carol": "f2"}}
	r := NewVisibilityResolver(identity)
	ctx := context.Background()
	f1 := "f1"

	tests := []struct {
		name      string
		owner     string
		requester string
		family    *string
		want      bool
	}{
		{"owner", "alice", "alice", nil, true},
		{"same_family", "bob", "alice", &f1, true},
		{"other_family", "carol", "alice", &f1, false},
		{"requester_without_family", "bob", "dave", nil, false},
		{"owner_without_family", "dave", "alice", &f1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveAccess(ctx, tt.owner, tt.requester, tt.family)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	t.Run("can_read_is_symmetric", func(t *testing.T) {
		ab, _ := r.CanRead(ctx, "alice", "bob")
		ba, _ := r.CanRead(ctx, "bob", "alice")
		if !ab || !ba {
			t.Errorf("expected symmetric family read access, got %v/%v", ab, ba)
		}
	})
}

func TestCanMutate(t *testing.T) {
	r := NewVisibilityResolver(&fakeIdentity{families: map[string]string{"alice": "f1", "bob": "f1"}})
	if !r.CanMutate("alice", "alice") {
		t.Error("owner must be able to mutate")
	}
	if r.CanMutate("alice", "bob") {
		t.Error("family members must not mutate each other's transactions")
	}
}
