package transfer

import (
	"sync"

	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
)

// Session is the holder of the session key for one login. It is either
// unbound (no key yet, or negotiation failed, or closed) or bound to a key
// the server has acknowledged. Key is the only accessor, so no chunk can
// be sealed or opened before negotiation has completed.
type Session struct {
	mu  sync.RWMutex
	key *cryptox.AEADKey
}

// NewSession returns an unbound session.
func NewSession() *Session {
	return &Session{}
}

// Key returns the bound key or ErrKeyNotSet.
func (s *Session) Key() (*cryptox.AEADKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == nil {
		return nil, ErrKeyNotSet
	}
	return s.key, nil
}

// Bound reports whether a key is installed.
func (s *Session) Bound() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key != nil
}

// Close drops the key. Transfers that already took the key keep using it
// until they finish; new transfers fail with ErrKeyNotSet. The raw key
// bytes never reach the Session (the negotiator zeroes them), and the AES
// schedule held by crypto/cipher is released to the GC rather than zeroed.
func (s *Session) Close() {
	s.bind(nil)
}

func (s *Session) bind(k *cryptox.AEADKey) {
	s.mu.Lock()
	s.key = k
	s.mu.Unlock()
}
