package ledger

import (
	"bytes"
	"math/big"
	"slices"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/proofledger/proof"
	rpcledger "github.com/nspcc-dev/proofledger/rpc/ledger"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestInit(t *testing.T) {
	store := storage.NewMemoryStore()
	supply := new(big.Int).Mul(big.NewInt(1_000_000_000), big.NewInt(100_000_000))

	l, r, err := Init(store, Genesis{
		Token:         testToken,
		Owner:         ownerAcc,
		InitialSupply: supply,
		MintAgents:    []util.Uint160{agentAcc},
		Whitelist:     []util.Uint160{accX},
	}, Prm{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	require.Equal(t, "init", r.Method)
	require.Equal(t, uint64(1), r.Height)
	require.Equal(t, []string{
		OwnershipTransferredEvent,
		MintAgentChangedEvent,
		WhitelistChangedEvent,
		TransferEvent,
		MintEvent,
	}, eventNames(r))
	for _, e := range r.Events {
		require.Equal(t, l.Hash(), e.ScriptHash)
	}

	transfers, err := rpcledger.TransferEventsFromNotifications(r.Events)
	require.NoError(t, err)
	require.Equal(t, []*rpcledger.TransferEvent{{To: &ownerAcc, Amount: supply}}, transfers)

	require.Equal(t, "Proof Token", l.Name())
	require.Equal(t, "PRF", l.Symbol())
	require.Equal(t, 8, l.Decimals())
	require.Equal(t, proof.Neo, l.Scheme())

	owner, err := l.Owner()
	require.NoError(t, err)
	require.Equal(t, ownerAcc, owner)

	actual, err := l.TotalSupply()
	require.NoError(t, err)
	require.Zero(t, supply.Cmp(actual))

	bal, err := l.BalanceOf(ownerAcc)
	require.NoError(t, err)
	require.Zero(t, supply.Cmp(bal))

	ok, err := l.IsMintAgent(agentAcc)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.IsWhitelisted(accX)
	require.NoError(t, err)
	require.True(t, ok)

	paused, err := l.Paused()
	require.NoError(t, err)
	require.False(t, paused)

	t.Run("already initialized", func(t *testing.T) {
		_, _, err := Init(store, Genesis{Token: testToken, Owner: accY}, Prm{})
		require.ErrorIs(t, err, ErrAlreadyInitialized)

		owner, err := l.Owner()
		require.NoError(t, err)
		require.Equal(t, ownerAcc, owner)
	})

	t.Run("reopen", func(t *testing.T) {
		reopened, err := New(store, Prm{Logger: zaptest.NewLogger(t)})
		require.NoError(t, err)
		require.Equal(t, l.Hash(), reopened.Hash())
		require.Equal(t, testToken, reopened.Token())

		h, err := reopened.Height()
		require.NoError(t, err)
		require.Equal(t, uint64(1), h)
	})
}

func TestInitInvalid(t *testing.T) {
	_, _, err := Init(storage.NewMemoryStore(), Genesis{
		Token:         testToken,
		InitialSupply: big.NewInt(-1),
	}, Prm{})
	require.ErrorIs(t, err, ErrInvalidAmount)

	tok := testToken
	tok.Decimals = 300
	_, _, err = Init(storage.NewMemoryStore(), Genesis{Token: tok}, Prm{})
	require.Error(t, err)
}

func TestNew(t *testing.T) {
	t.Run("not initialized", func(t *testing.T) {
		_, err := New(storage.NewMemoryStore(), Prm{})
		require.ErrorIs(t, err, ErrNotInitialized)
	})

	t.Run("version mismatch", func(t *testing.T) {
		store := storage.NewMemoryStore()
		newTestLedgerWithStore(t, store, nil)

		cache := storage.NewMemCachedStore(store)
		cache.Put([]byte{versionKey}, encodeVersion(Version+1))
		_, err := cache.PersistSync()
		require.NoError(t, err)

		_, err = New(store, Prm{})
		require.ErrorIs(t, err, ErrVersionMismatch)
	})
}

func TestCheckVersion(t *testing.T) {
	require.NoError(t, CheckVersion(Version))
	require.ErrorIs(t, CheckVersion(PrevVersion-1), ErrVersionMismatch)
	require.ErrorIs(t, CheckVersion(Version+1), ErrVersionMismatch)
}

func TestLedgerHash(t *testing.T) {
	a := newTestLedger(t, nil)

	other := testToken
	other.Magic++
	b, _, err := Init(storage.NewMemoryStore(), Genesis{Token: other, Owner: ownerAcc}, Prm{})
	require.NoError(t, err)

	require.NotEqual(t, a.Hash(), b.Hash())
}

func TestReceipt(t *testing.T) {
	l := newTestLedger(t, nil)

	r1, err := l.Mint(agentAcc, accX, amount(10))
	require.NoError(t, err)
	r2, err := l.Transfer(accX, accY, amount(1))
	require.NoError(t, err)

	require.Equal(t, "mint", r1.Method)
	require.Equal(t, agentAcc, r1.Caller)
	require.Equal(t, uint64(2), r1.Height)
	require.Equal(t, uint64(3), r2.Height)
	require.NotEqual(t, r1.ID, r2.ID)

	// Failed invocations are not counted.
	_, err = l.Transfer(accY, accX, amount(2))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	h, err := l.Height()
	require.NoError(t, err)
	require.Equal(t, uint64(3), h)
}

func TestStorageFailure(t *testing.T) {
	store := &failingStore{Store: storage.NewMemoryStore(), prefix: balancePrefix}
	l := newTestLedgerWithStore(t, store, nil)
	mint(t, l, accX, 100)

	store.fail = true
	requireFailsClean(t, l, errStorage, func() (*Receipt, error) {
		return l.Transfer(accX, accY, amount(10))
	})

	_, err := l.BalanceOf(accX)
	require.ErrorIs(t, err, errStorage)

	store.fail = false
	requireBalance(t, l, accX, 100)
}

func TestHolders(t *testing.T) {
	l := newTestLedger(t, nil)
	mint(t, l, accX, 100)
	mint(t, l, accY, 50)

	_, err := l.Transfer(accY, accZ, amount(50))
	require.NoError(t, err)

	holders := make(map[util.Uint160]int64)
	require.NoError(t, l.Holders(func(h util.Uint160, bal *big.Int) bool {
		holders[h] = bal.Int64()
		return true
	}))
	require.Equal(t, map[util.Uint160]int64{accX: 100, accZ: 50}, holders)

	var n int
	require.NoError(t, l.Holders(func(util.Uint160, *big.Int) bool {
		n++
		return false
	}))
	require.Equal(t, 1, n)
}

func TestEmptyLedger(t *testing.T) {
	l := newTestLedger(t, nil)

	supply, err := l.TotalSupply()
	require.NoError(t, err)
	require.Zero(t, supply.Sign())

	bal, err := l.BalanceOf(accX)
	require.NoError(t, err)
	require.Zero(t, bal.Sign())

	allowance, err := l.Allowance(accX, accY)
	require.NoError(t, err)
	require.Zero(t, allowance.Sign())

	mint(t, l, accX, 100000000)
	requireBalance(t, l, accX, 100000000)
	requireSupplyInvariant(t, l)

	t.Run("initial supply", func(t *testing.T) {
		l, _, err := Init(storage.NewMemoryStore(), Genesis{
			Token:         testToken,
			Owner:         ownerAcc,
			InitialSupply: big.NewInt(1),
		}, Prm{Logger: zaptest.NewLogger(t)})
		require.NoError(t, err)
		requireBalance(t, l, ownerAcc, 1)
		requireSupplyInvariant(t, l)
	})
}

func TestDump(t *testing.T) {
	l := newTestLedger(t, nil)
	mint(t, l, accX, 100)
	_, err := l.Approve(accX, accY, amount(10))
	require.NoError(t, err)
	_, err = l.WhitelistForTransfer(ownerAcc, accX, true)
	require.NoError(t, err)
	_, err = l.Pause(ownerAcc)
	require.NoError(t, err)

	var keys [][]byte
	l.Dump(func(k, _ []byte) bool {
		keys = append(keys, bytes.Clone(k))
		return true
	})
	require.True(t, slices.IsSortedFunc(keys, bytes.Compare))

	prefixes := make(map[byte]int)
	for _, k := range keys {
		prefixes[k[0]]++
	}
	for _, p := range []byte{balancePrefix, allowancePrefix, heightKey, tokenKey, mintAgentPrefix,
		ownerKey, pausedKey, supplyKey, versionKey, whitelistPrefix} {
		require.Positive(t, prefixes[p], "no items with prefix %q", p)
	}
	require.Equal(t, 1, prefixes[pausedKey])

	var n int
	l.Dump(func(_, _ []byte) bool {
		n++
		return false
	})
	require.Equal(t, 1, n)
}

func TestHeightStorageFailure(t *testing.T) {
	store := &failingStore{Store: storage.NewMemoryStore(), prefix: heightKey}
	l := newTestLedgerWithStore(t, store, nil)
	mint(t, l, accX, 100)

	store.fail = true
	requireFailsClean(t, l, errStorage, func() (*Receipt, error) {
		return l.Transfer(accX, accY, amount(10))
	})

	store.fail = false
	requireBalance(t, l, accX, 100)
	height, err := l.Height()
	require.NoError(t, err)
	require.Equal(t, uint64(2), height)
}
