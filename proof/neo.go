package proof

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/nspcc-dev/neo-go/pkg/crypto/hash"
	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// neoMessagePrefix separates signed ledger messages from Neo transactions
// and any other data signed with the same key.
const neoMessagePrefix = "\x19Neo Signed Message:\n32"

// compactCompressed is a compact signature flag marking compressed key.
const compactCompressed = 4

type neoScheme struct{}

// Neo is a Scheme with SHA-256 digests and secp256k1 signatures. Ledger
// address of a key is the script hash of its standard verification script,
// the same way Neo accounts are derived.
var Neo Scheme = neoScheme{}

func (neoScheme) Name() string {
	return "neo"
}

// Digest returns SHA-256(prefix ‖ SHA-256(msg)).
func (neoScheme) Digest(msg []byte) util.Uint256 {
	h := hash.Sha256(msg)
	return hash.Sha256(append([]byte(neoMessagePrefix), h.BytesBE()...))
}

func (neoScheme) Recover(digest util.Uint256, sig Signature) (util.Uint160, error) {
	id, err := sig.recoveryID()
	if err != nil {
		return util.Uint160{}, err
	}

	compact := make([]byte, SignatureLen)
	compact[0] = recoveryOffset + compactCompressed + id
	copy(compact[1:33], sig.R[:])
	copy(compact[33:], sig.S[:])

	pub, _, err := ecdsa.RecoverCompact(compact, digest.BytesBE())
	if err != nil {
		return util.Uint160{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return neoAddress(pub), nil
}

func neoAddress(pub *secp256k1.PublicKey) util.Uint160 {
	return (*keys.PublicKey)(pub.ToECDSA()).GetScriptHash()
}

// NeoSigner signs digests with a secp256k1 key for the Neo scheme.
type NeoSigner struct {
	key  *secp256k1.PrivateKey
	addr util.Uint160
}

// NewNeoSigner wraps the key into NeoSigner.
func NewNeoSigner(key *secp256k1.PrivateKey) *NeoSigner {
	return &NeoSigner{
		key:  key,
		addr: neoAddress(key.PubKey()),
	}
}

// GenerateNeoSigner creates NeoSigner with a new random key.
func GenerateNeoSigner() (*NeoSigner, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate secp256k1 key: %w", err)
	}
	return NewNeoSigner(key), nil
}

// NeoSignerFromBytes restores NeoSigner from 32-byte private key.
func NeoSignerFromBytes(b []byte) (*NeoSigner, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("wrong private key length %d", len(b))
	}
	return NewNeoSigner(secp256k1.PrivKeyFromBytes(b)), nil
}

func (s *NeoSigner) Scheme() Scheme {
	return Neo
}

func (s *NeoSigner) Address() util.Uint160 {
	return s.addr
}

func (s *NeoSigner) Bytes() []byte {
	return s.key.Serialize()
}

// SignDigest produces deterministic (RFC 6979) signature of the digest.
func (s *NeoSigner) SignDigest(digest util.Uint256) (Signature, error) {
	compact := ecdsa.SignCompact(s.key, digest.BytesBE(), true)

	var sig Signature
	sig.V = compact[0] - compactCompressed
	copy(sig.R[:], compact[1:33])
	copy(sig.S[:], compact[33:])
	return sig, nil
}
