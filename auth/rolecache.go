package auth

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/hivecraft/portal/persistence"
	"github.com/hivecraft/portal/types"
)

const roleCacheSize = 1024

// RoleCache caches user role lookups in front of the persister. Roles
// change rarely, the cache is invalidated explicitly when they do.
type RoleCache struct {
	persister persistence.Persister
	cache     *lru.ARCCache
}

func NewRoleCache(persister persistence.Persister) (*RoleCache, error) {
	cache, err := lru.NewARC(roleCacheSize)
	if err != nil {
		return nil, err
	}
	return &RoleCache{persister: persister, cache: cache}, nil
}

// Role returns the stored role of a user, falling back to "client" when the
// user has no explicit role record.
func (rc *RoleCache) Role(userId string) (string, error) {
	if role, ok := rc.cache.Get(userId); ok {
		return role.(string), nil
	}
	user := types.User{Id: userId}
	err := rc.persister.GetUser(&user)
	if err != nil {
		return "", err
	}
	role := user.Role
	if role == "" {
		role = types.RoleClient
	}
	rc.cache.Add(userId, role)
	return role, nil
}

// Invalidate drops the cached role of a user after a role change.
func (rc *RoleCache) Invalidate(userId string) {
	rc.cache.Remove(userId)
}
