package ledger

import (
	"errors"
	"math/big"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/proofledger/ledger/intent"
	"github.com/nspcc-dev/proofledger/proof"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testMagic = 0x2A

var (
	ownerAcc = util.Uint160{0x01}
	agentAcc = util.Uint160{0x02}
	accX     = util.Uint160{0x0A}
	accY     = util.Uint160{0x0B}
	accZ     = util.Uint160{0x0C}
	relayer  = util.Uint160{0x0D}
)

var testToken = Token{
	Name:     "Proof Token",
	Symbol:   "PRF",
	Decimals: 8,
	Magic:    testMagic,
}

func newTestLedger(t *testing.T, scheme proof.Scheme) *Ledger {
	return newTestLedgerWithStore(t, storage.NewMemoryStore(), scheme)
}

func newTestLedgerWithStore(t *testing.T, store storage.Store, scheme proof.Scheme) *Ledger {
	l, _, err := Init(store, Genesis{
		Token:      testToken,
		Owner:      ownerAcc,
		MintAgents: []util.Uint160{agentAcc},
	}, Prm{
		Logger: zaptest.NewLogger(t),
		Scheme: scheme,
	})
	require.NoError(t, err)
	return l
}

func amount(v int64) *big.Int {
	return big.NewInt(v)
}

func mint(t *testing.T, l *Ledger, to util.Uint160, v int64) {
	_, err := l.Mint(agentAcc, to, amount(v))
	require.NoError(t, err)
}

func requireBalance(t *testing.T, l *Ledger, holder util.Uint160, expected int64) {
	bal, err := l.BalanceOf(holder)
	require.NoError(t, err)
	require.Equal(t, expected, bal.Int64(), "balance of %s", holder.StringLE())
}

func requireAllowance(t *testing.T, l *Ledger, owner, spender util.Uint160, expected int64) {
	v, err := l.Allowance(owner, spender)
	require.NoError(t, err)
	require.Equal(t, expected, v.Int64())
}

func requireNonce(t *testing.T, l *Ledger, signer util.Uint160, expected uint64) {
	n, err := l.MetaNonce(signer)
	require.NoError(t, err)
	require.Equal(t, expected, n)
}

// requireSupplyInvariant checks that the sum of all balances equals the total
// supply.
func requireSupplyInvariant(t *testing.T, l *Ledger) {
	sum := new(big.Int)
	require.NoError(t, l.Holders(func(_ util.Uint160, bal *big.Int) bool {
		require.Positive(t, bal.Sign())
		sum.Add(sum, bal)
		return true
	}))
	supply, err := l.TotalSupply()
	require.NoError(t, err)
	require.Zero(t, sum.Cmp(supply), "sum of balances %s, total supply %s", sum, supply)
}

// stateOf returns a copy of all storage items.
func stateOf(l *Ledger) map[string]string {
	res := make(map[string]string)
	l.Dump(func(k, v []byte) bool {
		res[string(k)] = string(v)
		return true
	})
	return res
}

// requireFailsClean checks that f fails with expected error and leaves the
// state untouched.
func requireFailsClean(t *testing.T, l *Ledger, expected error, f func() (*Receipt, error)) {
	before := stateOf(l)
	r, err := f()
	require.ErrorIs(t, err, expected)
	require.Nil(t, r)
	require.Equal(t, before, stateOf(l))
}

func signIntent(t *testing.T, l *Ledger, s proof.Signer, in intent.Intent, fee int64) proof.Signature {
	msg, err := l.PrepareIntent(s.Address(), in, amount(fee))
	require.NoError(t, err)
	return signMessage(t, s, msg)
}

func signMessage(t *testing.T, s proof.Signer, msg intent.Message) proof.Signature {
	b, err := msg.Bytes()
	require.NoError(t, err)
	sig, err := proof.Sign(s, b)
	require.NoError(t, err)
	return sig
}

func eventNames(r *Receipt) []string {
	res := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		res = append(res, e.Name)
	}
	return res
}

var errStorage = errors.New("storage failure")

// failingStore fails reads of keys with the given prefix.
type failingStore struct {
	storage.Store
	prefix byte
	fail   bool
}

func (s *failingStore) Get(key []byte) ([]byte, error) {
	if s.fail && len(key) > 0 && key[0] == s.prefix {
		return nil, errStorage
	}
	return s.Store.Get(key)
}
