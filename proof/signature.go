package proof

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// SignatureLen is the length of a binary-encoded Signature.
const SignatureLen = 65

// recoveryOffset is added to the public key recovery ID to get V.
const recoveryOffset = 27

// ErrInvalidSignature is returned when signer's address can't be recovered
// from the signature.
var ErrInvalidSignature = errors.New("invalid signature")

// Signature is a recoverable secp256k1 signature in (v, r, s) form. V is the
// public key recovery ID, either raw (0, 1) or offset by 27 (27, 28).
type Signature struct {
	V byte
	R [32]byte
	S [32]byte
}

// Bytes returns v ‖ r ‖ s.
func (s Signature) Bytes() []byte {
	b := make([]byte, SignatureLen)
	b[0] = s.V
	copy(b[1:33], s.R[:])
	copy(b[33:], s.S[:])
	return b
}

// String returns base58-encoded Signature bytes.
func (s Signature) String() string {
	return base58.Encode(s.Bytes())
}

// SignatureFromBytes decodes Signature from v ‖ r ‖ s.
func SignatureFromBytes(b []byte) (Signature, error) {
	var s Signature
	if len(b) != SignatureLen {
		return s, fmt.Errorf("wrong signature length %d, expected %d", len(b), SignatureLen)
	}
	s.V = b[0]
	copy(s.R[:], b[1:33])
	copy(s.S[:], b[33:])
	return s, nil
}

// DecodeSignature decodes Signature from its String form.
func DecodeSignature(str string) (Signature, error) {
	b, err := base58.Decode(str)
	if err != nil {
		return Signature{}, fmt.Errorf("decode base58: %w", err)
	}
	return SignatureFromBytes(b)
}

// recoveryID returns public key recovery ID (0 or 1) encoded in V.
func (s Signature) recoveryID() (byte, error) {
	switch s.V {
	case 0, 1:
		return s.V, nil
	case recoveryOffset, recoveryOffset + 1:
		return s.V - recoveryOffset, nil
	default:
		return 0, fmt.Errorf("%w: unexpected V %d", ErrInvalidSignature, s.V)
	}
}
