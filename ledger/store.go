package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Storage keys and key prefixes.
const (
	balancePrefix   = 'a'
	allowancePrefix = 'b'
	noncePrefix     = 'n'
	whitelistPrefix = 'w'
	mintAgentPrefix = 'm'

	supplyKey  = 's'
	ownerKey   = 'o'
	pausedKey  = 'p'
	tokenKey   = 'i'
	versionKey = 'v'
	heightKey  = 'h'
)

// snapshot stages the changes of a single invocation over the backend store.
// Storage errors are sticky: accessors return zero values after the first
// failure and the invocation reports it instead of any business error.
type snapshot struct {
	st     *storage.MemCachedStore
	hash   util.Uint160
	err    error
	events []state.NotificationEvent
}

func newSnapshot(lower storage.Store, hash util.Uint160) *snapshot {
	return &snapshot{
		st:   storage.NewMemCachedStore(lower),
		hash: hash,
	}
}

func (s *snapshot) get(key []byte) []byte {
	v, err := s.st.Get(key)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			s.fail(fmt.Errorf("read key %x: %w", key, err))
		}
		return nil
	}
	return v
}

func (s *snapshot) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func addrKey(prefix byte, addr util.Uint160) []byte {
	return append([]byte{prefix}, addr.BytesBE()...)
}

func allowanceKey(owner, spender util.Uint160) []byte {
	return append(addrKey(allowancePrefix, owner), spender.BytesBE()...)
}

func (s *snapshot) getInt(key []byte) *big.Int {
	v := s.get(key)
	if v == nil {
		return new(big.Int)
	}
	return bigint.FromBytes(v)
}

// putInt stores v, zero values are deleted.
func (s *snapshot) putInt(key []byte, v *big.Int) {
	if v.Sign() == 0 {
		s.st.Delete(key)
		return
	}
	s.st.Put(key, bigint.ToBytes(v))
}

func (s *snapshot) getUint64(key []byte) uint64 {
	v := s.get(key)
	if v == nil {
		return 0
	}
	if len(v) != 8 {
		s.fail(fmt.Errorf("malformed counter at key %x", key))
		return 0
	}
	return binary.LittleEndian.Uint64(v)
}

func (s *snapshot) putUint64(key []byte, v uint64) {
	s.st.Put(key, binary.LittleEndian.AppendUint64(nil, v))
}

func (s *snapshot) balance(holder util.Uint160) *big.Int {
	return s.getInt(addrKey(balancePrefix, holder))
}

func (s *snapshot) setBalance(holder util.Uint160, v *big.Int) {
	s.putInt(addrKey(balancePrefix, holder), v)
}

func (s *snapshot) allowance(owner, spender util.Uint160) *big.Int {
	return s.getInt(allowanceKey(owner, spender))
}

func (s *snapshot) setAllowance(owner, spender util.Uint160, v *big.Int) {
	s.putInt(allowanceKey(owner, spender), v)
}

func (s *snapshot) nonce(signer util.Uint160) uint64 {
	return s.getUint64(addrKey(noncePrefix, signer))
}

func (s *snapshot) setNonce(signer util.Uint160, v uint64) {
	s.putUint64(addrKey(noncePrefix, signer), v)
}

func (s *snapshot) supply() *big.Int {
	return s.getInt([]byte{supplyKey})
}

func (s *snapshot) setSupply(v *big.Int) {
	s.putInt([]byte{supplyKey}, v)
}

func (s *snapshot) height() uint64 {
	return s.getUint64([]byte{heightKey})
}

func (s *snapshot) setHeight(v uint64) {
	s.putUint64([]byte{heightKey}, v)
}

func (s *snapshot) owner() util.Uint160 {
	v := s.get([]byte{ownerKey})
	if v == nil {
		return util.Uint160{}
	}
	owner, err := util.Uint160DecodeBytesBE(v)
	if err != nil {
		s.fail(fmt.Errorf("malformed owner: %w", err))
	}
	return owner
}

func (s *snapshot) setOwner(owner util.Uint160) {
	s.st.Put([]byte{ownerKey}, owner.BytesBE())
}

func (s *snapshot) paused() bool {
	return s.get([]byte{pausedKey}) != nil
}

func (s *snapshot) setPaused(paused bool) {
	if paused {
		s.st.Put([]byte{pausedKey}, []byte{1})
	} else {
		s.st.Delete([]byte{pausedKey})
	}
}

func (s *snapshot) flag(prefix byte, addr util.Uint160) bool {
	return s.get(addrKey(prefix, addr)) != nil
}

func (s *snapshot) setFlag(prefix byte, addr util.Uint160, enabled bool) {
	if enabled {
		s.st.Put(addrKey(prefix, addr), []byte{1})
	} else {
		s.st.Delete(addrKey(prefix, addr))
	}
}
