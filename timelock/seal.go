package timelock

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"

	kalacrypto "github.com/enigmarikki/kala-sub000/crypto"
)

var ErrShortCiphertext = errors.New("timelock: sealed envelope shorter than nonce+tag")

const (
	nonceSize = 12 // 96 bits, per spec.md §4.4
	tagSize   = 16 // 128 bits
)

// Envelope is the sealed transaction payload: (nonce96, tag128, ciphertext),
// concatenated as nonce‖ciphertext‖tag since Go's GCM.Seal already appends
// the tag to the ciphertext.
type Envelope struct {
	Nonce      [nonceSize]byte
	Ciphertext []byte // includes the trailing 16-byte GCM tag
}

// Seal encrypts plaintext (the canonically serialized transaction) under
// key with AES-256-GCM and a fresh random nonce.
func Seal(key [32]byte, plaintext []byte) (Envelope, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return Envelope{}, err
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return Envelope{}, err
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return Envelope{}, err
	}
	ct := gcm.Seal(nil, nonce[:], plaintext, nil)
	return Envelope{Nonce: nonce, Ciphertext: ct}, nil
}

// Unseal decrypts an Envelope under key, returning ErrAuthenticationFail if
// the ciphertext was tampered with or the key is wrong.
func Unseal(key [32]byte, env Envelope) ([]byte, error) {
	if len(env.Ciphertext) < tagSize {
		return nil, ErrShortCiphertext
	}
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, err
	}
	pt, err := gcm.Open(nil, env.Nonce[:], env.Ciphertext, nil)
	if err != nil {
		return nil, ErrAuthenticationFail
	}
	return pt, nil
}

// SealKeyBackup wraps a puzzle's plaintext key under a node-local
// key-encryption key using AES-KW (RFC 3394), for operators who need to
// recover a sealed transaction without waiting out the puzzle's forced
// delay (audit tooling, emergency recovery). The backup never travels with
// the transaction — only the envelope and the puzzle do — it is kept, if
// at all, purely in node-local custody.
func SealKeyBackup(kek [32]byte, key [32]byte) ([]byte, error) {
	return kalacrypto.AESKeyWrapRFC3394(kek[:], key[:])
}

// UnsealKeyBackup recovers a key previously wrapped by SealKeyBackup.
func UnsealKeyBackup(kek [32]byte, wrapped []byte) ([32]byte, error) {
	raw, err := kalacrypto.AESKeyUnwrapRFC3394(kek[:], wrapped)
	if err != nil {
		return [32]byte{}, err
	}
	var key [32]byte
	copy(key[:], raw)
	return key, nil
}
