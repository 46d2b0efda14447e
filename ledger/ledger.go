package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/crypto/hash"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/proofledger/ledger/intent"
	"github.com/nspcc-dev/proofledger/proof"
	"go.uber.org/zap"
)

// Ledger is a token ledger over a storage backend. Entry points are
// serialized, each one is applied atomically: either all of its changes are
// persisted or none of them.
type Ledger struct {
	mtx sync.RWMutex

	store  storage.Store
	log    *zap.Logger
	scheme proof.Scheme

	token Token
	hash  util.Uint160
}

// Prm groups optional Ledger parameters.
type Prm struct {
	// Logger, zap.NewNop() if nil.
	Logger *zap.Logger

	// Scheme used to verify meta transaction signatures, proof.Neo if nil.
	Scheme proof.Scheme
}

// Genesis is the initial state of a ledger.
type Genesis struct {
	Token Token

	// Owner becomes the ledger owner and receives InitialSupply.
	Owner         util.Uint160
	InitialSupply *big.Int

	MintAgents []util.Uint160
	Whitelist  []util.Uint160
}

// Receipt describes a successfully applied invocation.
type Receipt struct {
	ID     uuid.UUID
	Method string
	Caller util.Uint160
	// Height is the number of invocations committed to the ledger including
	// this one.
	Height uint64
	Events []state.NotificationEvent
}

func newLedger(store storage.Store, token Token, prm Prm) *Ledger {
	l := &Ledger{
		store:  store,
		log:    prm.Logger,
		scheme: prm.Scheme,
		token:  token,
		hash:   hash.Hash160(token.Bytes()),
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	if l.scheme == nil {
		l.scheme = proof.Neo
	}
	return l
}

// New opens an initialized ledger.
func New(store storage.Store, prm Prm) (*Ledger, error) {
	raw, err := store.Get([]byte{versionKey})
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("read version: %w", err)
	}
	v, err := decodeVersion(raw)
	if err != nil {
		return nil, err
	}
	if err := CheckVersion(v); err != nil {
		return nil, err
	}

	raw, err = store.Get([]byte{tokenKey})
	if err != nil {
		return nil, fmt.Errorf("read token info: %w", err)
	}
	var token Token
	if err := token.FromBytes(raw); err != nil {
		return nil, fmt.Errorf("decode token info: %w", err)
	}

	return newLedger(store, token, prm), nil
}

// Init writes genesis state into an empty store and opens the ledger.
//
// It produces OwnershipTransferred, MintAgentChanged and WhitelistChanged
// notifications for the genesis roles and Transfer and Mint notifications
// for the initial supply.
func Init(store storage.Store, g Genesis, prm Prm) (*Ledger, *Receipt, error) {
	if err := g.Token.validate(); err != nil {
		return nil, nil, err
	}
	supply := g.InitialSupply
	if supply == nil {
		supply = new(big.Int)
	}
	if err := checkAmount(supply); err != nil {
		return nil, nil, err
	}

	l := newLedger(store, g.Token, prm)
	rcpt, err := l.invoke("init", g.Owner, func(s *snapshot) error {
		if s.get([]byte{versionKey}) != nil {
			return ErrAlreadyInitialized
		}

		s.st.Put([]byte{versionKey}, encodeVersion(Version))
		s.st.Put([]byte{tokenKey}, g.Token.Bytes())

		s.setOwner(g.Owner)
		s.notifyOwnership(nil, g.Owner)

		for _, a := range g.MintAgents {
			s.setFlag(mintAgentPrefix, a, true)
			s.notifyRole(MintAgentChangedEvent, a, true)
		}
		for _, a := range g.Whitelist {
			s.setFlag(whitelistPrefix, a, true)
			s.notifyRole(WhitelistChangedEvent, a, true)
		}

		if supply.Sign() == 0 {
			return nil
		}
		return s.mint(g.Owner, supply)
	})
	if err != nil {
		return nil, nil, err
	}

	l.log.Info("ledger initialized",
		zap.String("symbol", g.Token.Symbol),
		zap.Stringer("hash", l.hash),
		zap.Stringer("owner", g.Owner),
		zap.Stringer("supply", supply))

	return l, rcpt, nil
}

// invoke applies f atomically on behalf of the caller.
func (l *Ledger) invoke(method string, caller util.Uint160, f func(*snapshot) error) (*Receipt, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	s := newSnapshot(l.store, l.hash)
	err := f(s)
	if s.err != nil {
		err = s.err
	}
	if err != nil {
		l.log.Debug("invocation rejected",
			zap.String("method", method),
			zap.Stringer("caller", caller),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	height := s.height() + 1
	if s.err != nil {
		l.log.Debug("invocation rejected",
			zap.String("method", method),
			zap.Stringer("caller", caller),
			zap.Error(s.err))
		return nil, fmt.Errorf("%s: %w", method, s.err)
	}
	s.setHeight(height)

	if _, err := s.st.PersistSync(); err != nil {
		l.log.Error("can't persist invocation",
			zap.String("method", method),
			zap.Error(err))
		return nil, fmt.Errorf("%s: persist changes: %w", method, err)
	}

	rcpt := &Receipt{
		ID:     uuid.New(),
		Method: method,
		Caller: caller,
		Height: height,
		Events: s.events,
	}

	l.log.Debug("invocation applied",
		zap.String("method", method),
		zap.Stringer("caller", caller),
		zap.Uint64("height", height),
		zap.Int("events", len(rcpt.Events)),
		zap.Stringer("receipt", rcpt.ID))

	return rcpt, nil
}

// view runs read-only f over the current state.
func (l *Ledger) view(f func(*snapshot)) error {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	s := newSnapshot(l.store, l.hash)
	f(s)
	return s.err
}

// Hash returns ledger identifier. It is used as the script hash of
// notifications.
func (l *Ledger) Hash() util.Uint160 {
	return l.hash
}

// Token returns token info.
func (l *Ledger) Token() Token {
	return l.token
}

// Name returns token name.
func (l *Ledger) Name() string {
	return l.token.Name
}

// Symbol returns token symbol.
func (l *Ledger) Symbol() string {
	return l.token.Symbol
}

// Decimals returns token precision.
func (l *Ledger) Decimals() int {
	return l.token.Decimals
}

// Scheme returns signature scheme of meta transactions.
func (l *Ledger) Scheme() proof.Scheme {
	return l.scheme
}

// TotalSupply returns the amount of tokens in circulation.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	var res *big.Int
	err := l.view(func(s *snapshot) { res = s.supply() })
	return res, err
}

// BalanceOf returns balance of the holder.
func (l *Ledger) BalanceOf(holder util.Uint160) (*big.Int, error) {
	var res *big.Int
	err := l.view(func(s *snapshot) { res = s.balance(holder) })
	return res, err
}

// Allowance returns the amount spender may transfer from owner.
func (l *Ledger) Allowance(owner, spender util.Uint160) (*big.Int, error) {
	var res *big.Int
	err := l.view(func(s *snapshot) { res = s.allowance(owner, spender) })
	return res, err
}

// Owner returns ledger owner.
func (l *Ledger) Owner() (util.Uint160, error) {
	var res util.Uint160
	err := l.view(func(s *snapshot) { res = s.owner() })
	return res, err
}

// MetaNonce returns the nonce the next meta transaction of the signer must
// be signed with.
func (l *Ledger) MetaNonce(signer util.Uint160) (uint64, error) {
	var res uint64
	err := l.view(func(s *snapshot) { res = s.nonce(signer) })
	return res, err
}

func (l *Ledger) Paused() (bool, error) {
	var res bool
	err := l.view(func(s *snapshot) { res = s.paused() })
	return res, err
}

func (l *Ledger) IsMintAgent(addr util.Uint160) (bool, error) {
	var res bool
	err := l.view(func(s *snapshot) { res = s.flag(mintAgentPrefix, addr) })
	return res, err
}

func (l *Ledger) IsWhitelisted(addr util.Uint160) (bool, error) {
	var res bool
	err := l.view(func(s *snapshot) { res = s.flag(whitelistPrefix, addr) })
	return res, err
}

// Height returns the number of committed invocations.
func (l *Ledger) Height() (uint64, error) {
	var res uint64
	err := l.view(func(s *snapshot) { res = s.height() })
	return res, err
}

// PrepareIntent returns the message the signer must sign to authorize the
// intent with the given relayer fee at its current nonce.
func (l *Ledger) PrepareIntent(signer util.Uint160, in intent.Intent, fee *big.Int) (intent.Message, error) {
	nonce, err := l.MetaNonce(signer)
	if err != nil {
		return intent.Message{}, err
	}
	return intent.Message{
		Magic:  l.token.Magic,
		Intent: in,
		Fee:    fee,
		Nonce:  nonce,
	}, nil
}

// Holders iterates over holders with nonzero balance until f returns false.
func (l *Ledger) Holders(f func(holder util.Uint160, balance *big.Int) bool) error {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	var err error
	l.store.Seek(storage.SeekRange{Prefix: []byte{balancePrefix}}, func(k, v []byte) bool {
		var holder util.Uint160
		holder, err = util.Uint160DecodeBytesBE(k[1:])
		if err != nil {
			err = fmt.Errorf("malformed balance key %x: %w", k, err)
			return false
		}
		return f(holder, bigint.FromBytes(v))
	})
	return err
}

// storagePrefixes lists the first bytes of all ledger storage keys in
// ascending order.
var storagePrefixes = []byte{
	balancePrefix,
	allowancePrefix,
	heightKey,
	tokenKey,
	mintAgentPrefix,
	noncePrefix,
	ownerKey,
	pausedKey,
	supplyKey,
	versionKey,
	whitelistPrefix,
}

// Dump iterates over raw storage items until f returns false. Key and value
// slices must not be retained by f.
func (l *Ledger) Dump(f func(key, value []byte) bool) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	var stop bool
	for _, p := range storagePrefixes {
		l.store.Seek(storage.SeekRange{Prefix: []byte{p}}, func(k, v []byte) bool {
			stop = !f(k, v)
			return !stop
		})
		if stop {
			return
		}
	}
}
