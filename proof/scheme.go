package proof

import (
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Scheme binds message digest convention and signer recovery. Ledger never
// trusts a claimed signer: the address is always derived by Recover.
type Scheme interface {
	// Name returns the scheme identifier used in configuration.
	Name() string

	// Digest returns the prefixed digest of the message which is signed by
	// the holder.
	Digest(msg []byte) util.Uint256

	// Recover returns the address of the key that produced sig over digest.
	// Errors wrap ErrInvalidSignature.
	Recover(digest util.Uint256, sig Signature) (util.Uint160, error)
}

// Signer produces signatures for a single key.
type Signer interface {
	// Scheme returns the scheme the signer belongs to.
	Scheme() Scheme

	// Address returns the ledger address of the key.
	Address() util.Uint160

	// SignDigest signs prepared digest.
	SignDigest(digest util.Uint256) (Signature, error)

	// Bytes returns the private key in the scheme's native encoding.
	Bytes() []byte
}

// Sign digests msg with the signer's scheme and signs the result.
func Sign(s Signer, msg []byte) (Signature, error) {
	return s.SignDigest(s.Scheme().Digest(msg))
}

// SchemeByName returns Scheme registered with the given name. Empty name
// selects Neo.
func SchemeByName(name string) (Scheme, error) {
	switch name {
	case "", Neo.Name():
		return Neo, nil
	case Ethereum.Name():
		return Ethereum, nil
	default:
		return nil, fmt.Errorf("unknown proof scheme %q", name)
	}
}

// GenerateSigner creates a signer with a new random key of the scheme.
func GenerateSigner(s Scheme) (Signer, error) {
	var (
		res Signer
		err error
	)
	switch s.Name() {
	case Neo.Name():
		res, err = GenerateNeoSigner()
	case Ethereum.Name():
		res, err = GenerateEthereumSigner()
	default:
		return nil, fmt.Errorf("unsupported proof scheme %q", s.Name())
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SignerFromBytes restores a signer of the scheme from its Bytes.
func SignerFromBytes(s Scheme, key []byte) (Signer, error) {
	var (
		res Signer
		err error
	)
	switch s.Name() {
	case Neo.Name():
		res, err = NeoSignerFromBytes(key)
	case Ethereum.Name():
		res, err = EthereumSignerFromBytes(key)
	default:
		return nil, fmt.Errorf("unsupported proof scheme %q", s.Name())
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}
