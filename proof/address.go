package proof

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// ParseAddress decodes ledger address either from a Neo address string or
// from 0x-prefixed hex of the raw 20 bytes (the way Ethereum addresses are
// written).
func ParseAddress(s string) (util.Uint160, error) {
	if h, ok := strings.CutPrefix(s, "0x"); ok {
		u, err := util.Uint160DecodeStringBE(h)
		if err != nil {
			return util.Uint160{}, fmt.Errorf("decode hex address %q: %w", s, err)
		}
		return u, nil
	}
	u, err := address.StringToUint160(s)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("decode address %q: %w", s, err)
	}
	return u, nil
}

// FormatAddress returns the conventional text form of the address in the
// scheme: Neo address for Neo, 0x-prefixed hex for Ethereum.
func FormatAddress(s Scheme, addr util.Uint160) string {
	if s != nil && s.Name() == Ethereum.Name() {
		return "0x" + hex.EncodeToString(addr.BytesBE())
	}
	return address.Uint160ToString(addr)
}
