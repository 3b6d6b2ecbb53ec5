package store

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// SealedBackend encrypts values before handing them to the wrapped backend,
// so tokens are not readable from the state directory.
type SealedBackend struct {
	inner Backend
	key   [32]byte
}

// NewSealedBackend derives the box key from secret.
func NewSealedBackend(inner Backend, secret string) *SealedBackend {
	return &SealedBackend{inner: inner, key: sha256.Sum256([]byte(secret))}
}

func (b *SealedBackend) Get(key string) ([]byte, bool, error) {
	sealed, found, err := b.inner.Get(key)
	if err != nil || !found {
		return nil, found, err
	}
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, true, fmt.Errorf("%s: %w", key, ErrCorrupt)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	data, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &b.key)
	if !ok {
		return nil, true, fmt.Errorf("%s: %w", key, ErrCorrupt)
	}
	return data, true, nil
}

func (b *SealedBackend) Set(key string, data []byte) error {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], data, &nonce, &b.key)
	return b.inner.Set(key, sealed)
}

func (b *SealedBackend) Delete(key string) error {
	return b.inner.Delete(key)
}
