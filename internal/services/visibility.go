package services

import "context"

// VisibilityResolver decides whose transactions a requester may see.
// Family read access is symmetric among members and is evaluated at query
// time from current membership; mutation is strictly owner-only.
type VisibilityResolver struct {
	identity IdentityLookup
}

// NewVisibilityResolver creates a resolver backed by identity.
func NewVisibilityResolver(identity IdentityLookup) *VisibilityResolver {
	return &VisibilityResolver{identity: identity}
}

// FamilyOf exposes the requester's current family id, or nil.
func (r *VisibilityResolver) FamilyOf(ctx context.Context, userID string) (*string, error) {
	return r.identity.FamilyOf(ctx, userID)
}

// ResolveOwnerSet returns the user ids whose transactions requester may
// read. The requester is always included and comes first.
func (r *VisibilityResolver) ResolveOwnerSet(ctx context.Context, requester string, includeFamily bool) ([]string, error) {
	owners := []string{requester}
	if !includeFamily {
		return owners, nil
	}

	familyID, err := r.identity.FamilyOf(ctx, requester)
	if err != nil {
		return nil, err
	}
	if familyID == nil {
		return owners, nil
	}

	members, err := r.identity.MembersOf(ctx, *familyID)
	if err != nil {
		return nil, err
	}
	for _, id := range members {
		if id != requester {
			owners = append(owners, id)
		}
	}
	return owners, nil
}

// ResolveAccess reports whether requester may read a transaction owned by
// txOwnerID, given the requester's family (nil when none).
func (r *VisibilityResolver) ResolveAccess(ctx context.Context, txOwnerID, requester string, requesterFamilyID *string) (bool, error) {
	if txOwnerID == requester {
		return true, nil
	}
	if requesterFamilyID == nil {
		return false, nil
	}

	ownerFamilyID, err := r.identity.FamilyOf(ctx, txOwnerID)
	if err != nil {
		return false, err
	}
	return ownerFamilyID != nil && *ownerFamilyID == *requesterFamilyID, nil
}

// CanRead looks up the requester's family and applies ResolveAccess.
func (r *VisibilityResolver) CanRead(ctx context.Context, txOwnerID, requester string) (bool, error) {
	if txOwnerID == requester {
		return true, nil
	}
	familyID, err := r.identity.FamilyOf(ctx, requester)
	if err != nil {
		return false, err
	}
	return r.ResolveAccess(ctx, txOwnerID, requester, familyID)
}

// CanMutate reports whether requester may update or delete a transaction
// owned by txOwnerID.
func (r *VisibilityResolver) CanMutate(txOwnerID, requester string) bool {
	return txOwnerID == requester
}
