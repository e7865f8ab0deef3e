// Copyright (c) 2026 ToeiRei
// Certmigrate - managed certificate configuration migration
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	sealPrefix = "v1:"
	saltSize   = 16
	nonceSize  = 24
	keySize    = 32
)

// scrypt cost parameters; tests lower them through sealCost.
var sealCost = struct{ N, r, p int }{N: 1 << 15, r: 8, p: 1}

var (
	// ErrPassphraseRequired is returned when sealing or opening without a passphrase.
	ErrPassphraseRequired = errors.New("passphrase required")
	// ErrSealedInvalid is returned when a sealed value is malformed or the
	// passphrase does not open it.
	ErrSealedInvalid = errors.New("sealed secret cannot be opened (wrong passphrase or corrupt value)")
)

// Seal encrypts s with a key derived from passphrase and returns a printable
// value ("v1:" + base64(salt | nonce | box)).
func Seal(passphrase string, s Secret) (string, error) {
	if passphrase == "" {
		return "", ErrPassphraseRequired
	}
	var salt [saltSize]byte
	if _, err := io.ReadFull(rand.Reader, salt[:]); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	key, err := deriveKey(passphrase, salt[:])
	if err != nil {
		return "", err
	}
	out := make([]byte, 0, saltSize+nonceSize+len(s)+secretbox.Overhead)
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, s, &nonce, key)
	return sealPrefix + base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal.
func Open(passphrase, sealed string) (Secret, error) {
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}
	if !strings.HasPrefix(sealed, sealPrefix) {
		return nil, ErrSealedInvalid
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, sealPrefix))
	if err != nil || len(raw) < saltSize+nonceSize+secretbox.Overhead {
		return nil, ErrSealedInvalid
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[saltSize:saltSize+nonceSize])
	key, err := deriveKey(passphrase, raw[:saltSize])
	if err != nil {
		return nil, err
	}
	plain, ok := secretbox.Open(nil, raw[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return nil, ErrSealedInvalid
	}
	return Secret(plain), nil
}

func deriveKey(passphrase string, salt []byte) (*[keySize]byte, error) {
	k, err := scrypt.Key([]byte(passphrase), salt, sealCost.N, sealCost.r, sealCost.p, keySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	var key [keySize]byte
	copy(key[:], k)
	return &key, nil
}
