// Package secure keeps credential material (passwords, API keys, session
// tokens) out of plain process memory while a command runs. Values live in
// memguard enclaves: encrypted at rest, mlocked where the platform allows,
// and wiped when the flow finishes.
package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Buffer holds one sensitive value for the lifetime of a CLI flow.
type Buffer struct {
	enclave *memguard.Enclave

	mu    sync.RWMutex
	wiped bool
}

// NewBuffer seals the given bytes into a protected enclave. The input slice
// is consumed; callers must not reuse it.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{enclave: memguard.NewEnclave(data)}
}

// NewBufferFromString seals a string value. Convenient for material that
// arrives as a string from a prompt or a parsed response.
func NewBufferFromString(value string) *Buffer {
	return NewBuffer([]byte(value))
}

// Open decrypts the value into a locked buffer. The caller must Destroy the
// returned buffer as soon as the plaintext has been used.
func (b *Buffer) Open() (*memguard.LockedBuffer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.wiped {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}
	return b.enclave.Open()
}

// String decrypts the value, copies it into an ordinary string, and wipes
// the intermediate locked buffer. The returned string escapes memguard's
// protection; use it only at the point the value leaves the process (an
// HTTP header, a store write).
func (b *Buffer) String() (string, error) {
	locked, err := b.Open()
	if err != nil {
		return "", err
	}
	defer locked.Destroy()
	return string(locked.Bytes()), nil
}

// Wipe marks the buffer unusable. Idempotent. Open after Wipe returns an
// empty buffer rather than an error so cleanup paths stay simple.
func (b *Buffer) Wipe() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.wiped {
		return
	}
	b.enclave = nil
	b.wiped = true
}
