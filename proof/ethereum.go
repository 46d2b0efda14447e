package proof

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

type ethereumScheme struct{}

// Ethereum is a Scheme compatible with Ethereum wallets: Keccak-256 digests
// with the personal message prefix, ledger address is the Ethereum address
// of the key.
var Ethereum Scheme = ethereumScheme{}

func (ethereumScheme) Name() string {
	return "ethereum"
}

// Digest returns Keccak-256("\x19Ethereum Signed Message:\n32" ‖ Keccak-256(msg)).
func (ethereumScheme) Digest(msg []byte) util.Uint256 {
	d, _ := util.Uint256DecodeBytesBE(accounts.TextHash(crypto.Keccak256(msg)))
	return d
}

func (ethereumScheme) Recover(digest util.Uint256, sig Signature) (util.Uint160, error) {
	id, err := sig.recoveryID()
	if err != nil {
		return util.Uint160{}, err
	}

	raw := make([]byte, crypto.SignatureLength)
	copy(raw[:32], sig.R[:])
	copy(raw[32:64], sig.S[:])
	raw[64] = id

	pub, err := crypto.SigToPub(digest.BytesBE(), raw)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return util.Uint160(crypto.PubkeyToAddress(*pub)), nil
}

// EthereumSigner signs digests with a secp256k1 key for the Ethereum scheme.
type EthereumSigner struct {
	key  *ecdsa.PrivateKey
	addr util.Uint160
}

// NewEthereumSigner wraps the key into EthereumSigner.
func NewEthereumSigner(key *ecdsa.PrivateKey) *EthereumSigner {
	return &EthereumSigner{
		key:  key,
		addr: util.Uint160(crypto.PubkeyToAddress(key.PublicKey)),
	}
}

// GenerateEthereumSigner creates EthereumSigner with a new random key.
func GenerateEthereumSigner() (*EthereumSigner, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate secp256k1 key: %w", err)
	}
	return NewEthereumSigner(key), nil
}

// EthereumSignerFromBytes restores EthereumSigner from 32-byte private key.
func EthereumSignerFromBytes(b []byte) (*EthereumSigner, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	return NewEthereumSigner(key), nil
}

func (s *EthereumSigner) Scheme() Scheme {
	return Ethereum
}

func (s *EthereumSigner) Address() util.Uint160 {
	return s.addr
}

func (s *EthereumSigner) Bytes() []byte {
	return crypto.FromECDSA(s.key)
}

func (s *EthereumSigner) SignDigest(digest util.Uint256) (Signature, error) {
	raw, err := crypto.Sign(digest.BytesBE(), s.key)
	if err != nil {
		return Signature{}, fmt.Errorf("sign digest: %w", err)
	}

	var sig Signature
	copy(sig.R[:], raw[:32])
	copy(sig.S[:], raw[32:64])
	sig.V = raw[64] + recoveryOffset
	return sig, nil
}
