// Package sessions keeps the current session key of each user. Keys live
// in memory only and are lost on restart; clients renegotiate after a
// failed upload or download.
package sessions

import (
	"sync"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
)

type Registry struct {
	mu   sync.RWMutex
	keys map[string]*cryptox.AEADKey
}

func NewRegistry() *Registry {
	return &Registry{keys: make(map[string]*cryptox.AEADKey)}
}

// Set replaces the session key of userID.
func (r *Registry) Set(userID string, key *cryptox.AEADKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[userID] = key
}

// Get returns common.ErrNoSessionKey when userID has not negotiated a key.
func (r *Registry) Get(userID string) (*cryptox.AEADKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.keys[userID]
	if !ok {
		return nil, common.ErrNoSessionKey
	}
	return k, nil
}

func (r *Registry) Delete(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, userID)
}
