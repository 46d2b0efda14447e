package ledger

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/proofledger/ledger/intent"
	"github.com/nspcc-dev/proofledger/proof"
	rpcledger "github.com/nspcc-dev/proofledger/rpc/ledger"
	"github.com/stretchr/testify/require"
)

func newSigner(t *testing.T, scheme proof.Scheme) proof.Signer {
	s, err := proof.GenerateSigner(scheme)
	require.NoError(t, err)
	return s
}

func TestTransferWithProof(t *testing.T) {
	for _, scheme := range []proof.Scheme{proof.Neo, proof.Ethereum} {
		t.Run(scheme.Name(), func(t *testing.T) {
			l := newTestLedger(t, scheme)
			signer := newSigner(t, scheme)
			s := signer.Address()
			mint(t, l, s, 1000)

			in := intent.Transfer{To: accY, Amount: amount(100)}
			sig := signIntent(t, l, signer, in, 10)

			r, err := l.TransferWithProof(relayer, accY, amount(100), sig, amount(10), s)
			require.NoError(t, err)
			require.Equal(t, relayer, r.Caller)
			require.Equal(t, []string{TransferEvent, TransferEvent, MetaTransactionEvent}, eventNames(r))

			requireBalance(t, l, accY, 100)
			requireBalance(t, l, relayer, 10)
			requireBalance(t, l, s, 890)
			requireNonce(t, l, s, 1)
			requireSupplyInvariant(t, l)

			meta, err := rpcledger.MetaTransactionEventsFromNotifications(r.Events)
			require.NoError(t, err)
			require.Len(t, meta, 1)
			require.Equal(t, s, meta[0].Signer)
			require.Equal(t, relayer, meta[0].Relayer)
			require.Equal(t, string(intent.KindTransfer), meta[0].Kind)
			require.Zero(t, meta[0].Nonce.Sign())
			require.Equal(t, int64(10), meta[0].Fee.Int64())

			t.Run("replay", func(t *testing.T) {
				requireFailsClean(t, l, ErrInvalidSignature, func() (*Receipt, error) {
					return l.TransferWithProof(relayer, accY, amount(100), sig, amount(10), s)
				})
			})

			t.Run("next nonce", func(t *testing.T) {
				sig := signIntent(t, l, signer, in, 10)
				_, err := l.TransferWithProof(relayer, accY, amount(100), sig, amount(10), s)
				require.NoError(t, err)

				requireBalance(t, l, accY, 200)
				requireBalance(t, l, relayer, 20)
				requireBalance(t, l, s, 780)
				requireNonce(t, l, s, 2)
			})
		})
	}
}

func TestMetaNonceOrder(t *testing.T) {
	l := newTestLedger(t, nil)
	signer := newSigner(t, proof.Neo)
	s := signer.Address()
	mint(t, l, s, 1000)

	in := intent.Transfer{To: accY, Amount: amount(1)}
	msg := func(nonce uint64) intent.Message {
		return intent.Message{Magic: testMagic, Intent: in, Fee: amount(0), Nonce: nonce}
	}
	sig0 := signMessage(t, signer, msg(0))
	sig1 := signMessage(t, signer, msg(1))
	sig2 := signMessage(t, signer, msg(2))

	// Future nonces are not accepted.
	requireFailsClean(t, l, ErrInvalidSignature, func() (*Receipt, error) {
		return l.TransferWithProof(relayer, accY, amount(1), sig1, amount(0), s)
	})
	requireFailsClean(t, l, ErrInvalidSignature, func() (*Receipt, error) {
		return l.TransferWithProof(relayer, accY, amount(1), sig2, amount(0), s)
	})

	for i, sig := range []proof.Signature{sig0, sig1, sig2} {
		_, err := l.TransferWithProof(relayer, accY, amount(1), sig, amount(0), s)
		require.NoError(t, err)
		requireNonce(t, l, s, uint64(i+1))
	}

	// Consumed nonces are not accepted.
	for _, sig := range []proof.Signature{sig0, sig1, sig2} {
		requireFailsClean(t, l, ErrInvalidSignature, func() (*Receipt, error) {
			return l.TransferWithProof(relayer, accY, amount(1), sig, amount(0), s)
		})
	}
}

func TestMetaSignatureMismatch(t *testing.T) {
	l := newTestLedger(t, nil)
	signer := newSigner(t, proof.Neo)
	s := signer.Address()
	mint(t, l, s, 1000)
	mint(t, l, accX, 1000)

	in := intent.Transfer{To: accY, Amount: amount(100)}
	sig := signIntent(t, l, signer, in, 10)

	t.Run("other signer", func(t *testing.T) {
		requireFailsClean(t, l, ErrInvalidSignature, func() (*Receipt, error) {
			return l.TransferWithProof(relayer, accY, amount(100), sig, amount(10), accX)
		})
	})
	t.Run("other recipient", func(t *testing.T) {
		requireFailsClean(t, l, ErrInvalidSignature, func() (*Receipt, error) {
			return l.TransferWithProof(relayer, accZ, amount(100), sig, amount(10), s)
		})
	})
	t.Run("other amount", func(t *testing.T) {
		requireFailsClean(t, l, ErrInvalidSignature, func() (*Receipt, error) {
			return l.TransferWithProof(relayer, accY, amount(101), sig, amount(10), s)
		})
	})
	t.Run("other fee", func(t *testing.T) {
		requireFailsClean(t, l, ErrInvalidSignature, func() (*Receipt, error) {
			return l.TransferWithProof(relayer, accY, amount(100), sig, amount(11), s)
		})
	})
	t.Run("other operation", func(t *testing.T) {
		requireFailsClean(t, l, ErrInvalidSignature, func() (*Receipt, error) {
			return l.ApproveWithProof(relayer, accY, amount(100), sig, amount(10), s)
		})
	})
	t.Run("malformed", func(t *testing.T) {
		bad := sig
		bad.V = 3
		requireFailsClean(t, l, ErrInvalidSignature, func() (*Receipt, error) {
			return l.TransferWithProof(relayer, accY, amount(100), bad, amount(10), s)
		})
	})
	t.Run("other ledger", func(t *testing.T) {
		tok := testToken
		tok.Magic++
		other, _, err := Init(storage.NewMemoryStore(), Genesis{
			Token:      tok,
			Owner:      ownerAcc,
			MintAgents: []util.Uint160{agentAcc},
		}, Prm{})
		require.NoError(t, err)
		mint(t, other, s, 1000)

		requireFailsClean(t, other, ErrInvalidSignature, func() (*Receipt, error) {
			return other.TransferWithProof(relayer, accY, amount(100), sig, amount(10), s)
		})
	})
	t.Run("other scheme", func(t *testing.T) {
		eth := newTestLedger(t, proof.Ethereum)
		mint(t, eth, s, 1000)

		requireFailsClean(t, eth, ErrInvalidSignature, func() (*Receipt, error) {
			return eth.TransferWithProof(relayer, accY, amount(100), sig, amount(10), s)
		})
	})

	_, err := l.TransferWithProof(relayer, accY, amount(100), sig, amount(10), s)
	require.NoError(t, err)
}

func TestMetaBalanceCoversFee(t *testing.T) {
	l := newTestLedger(t, nil)
	signer := newSigner(t, proof.Neo)
	s := signer.Address()
	mint(t, l, s, 105)

	sig := signIntent(t, l, signer, intent.Transfer{To: accY, Amount: amount(100)}, 10)
	requireFailsClean(t, l, ErrInsufficientBalance, func() (*Receipt, error) {
		return l.TransferWithProof(relayer, accY, amount(100), sig, amount(10), s)
	})
	requireNonce(t, l, s, 0)

	sig = signIntent(t, l, signer, intent.Transfer{To: accY, Amount: amount(100)}, 5)
	_, err := l.TransferWithProof(relayer, accY, amount(100), sig, amount(5), s)
	require.NoError(t, err)
	requireBalance(t, l, s, 0)
	requireBalance(t, l, relayer, 5)

	t.Run("approval needs fee only", func(t *testing.T) {
		sig := signIntent(t, l, signer, intent.Approve{Spender: accZ, Amount: amount(100)}, 1)
		requireFailsClean(t, l, ErrInsufficientBalance, func() (*Receipt, error) {
			return l.ApproveWithProof(relayer, accZ, amount(100), sig, amount(1), s)
		})

		sig = signIntent(t, l, signer, intent.Approve{Spender: accZ, Amount: amount(100)}, 0)
		_, err := l.ApproveWithProof(relayer, accZ, amount(100), sig, amount(0), s)
		require.NoError(t, err)
		requireAllowance(t, l, s, accZ, 100)
	})
}

func TestApproveWithProof(t *testing.T) {
	l := newTestLedger(t, nil)
	signer := newSigner(t, proof.Neo)
	s := signer.Address()
	mint(t, l, s, 100)

	in := intent.Approve{Spender: accY, Amount: amount(50)}
	sig := signIntent(t, l, signer, in, 1)

	// Relayer can't make someone else the approver.
	mint(t, l, accX, 100)
	requireFailsClean(t, l, ErrInvalidSignature, func() (*Receipt, error) {
		return l.ApproveWithProof(relayer, accY, amount(50), sig, amount(1), accX)
	})

	r, err := l.ApproveWithProof(relayer, accY, amount(50), sig, amount(1), s)
	require.NoError(t, err)
	require.Equal(t, []string{ApprovalEvent, TransferEvent, MetaTransactionEvent}, eventNames(r))
	requireAllowance(t, l, s, accY, 50)
	requireBalance(t, l, s, 99)
	requireBalance(t, l, relayer, 1)
	requireNonce(t, l, s, 1)

	t.Run("already set", func(t *testing.T) {
		sig := signIntent(t, l, signer, intent.Approve{Spender: accY, Amount: amount(60)}, 1)
		requireFailsClean(t, l, ErrAllowanceAlreadySet, func() (*Receipt, error) {
			return l.ApproveWithProof(relayer, accY, amount(60), sig, amount(1), s)
		})
		requireNonce(t, l, s, 1)
	})

	// Spender uses the allowance directly.
	_, err = l.TransferFrom(accY, s, accZ, amount(50))
	require.NoError(t, err)
	requireBalance(t, l, accZ, 50)
	requireSupplyInvariant(t, l)
}

func TestIncreaseDecreaseApprovalWithProof(t *testing.T) {
	l := newTestLedger(t, proof.Ethereum)
	signer := newSigner(t, proof.Ethereum)
	s := signer.Address()
	mint(t, l, s, 10)

	sig := signIntent(t, l, signer, intent.IncreaseApproval{Spender: accY, Delta: amount(70)}, 2)
	r, err := l.IncreaseApprovalWithProof(relayer, accY, amount(70), sig, amount(2), s)
	require.NoError(t, err)
	requireAllowance(t, l, s, accY, 70)

	meta, err := rpcledger.MetaTransactionEventsFromNotifications(r.Events)
	require.NoError(t, err)
	require.Equal(t, string(intent.KindIncreaseApproval), meta[0].Kind)

	sig = signIntent(t, l, signer, intent.DecreaseApproval{Spender: accY, Delta: amount(100)}, 2)
	_, err = l.DecreaseApprovalWithProof(relayer, accY, amount(100), sig, amount(2), s)
	require.NoError(t, err)
	requireAllowance(t, l, s, accY, 0)

	requireBalance(t, l, s, 6)
	requireBalance(t, l, relayer, 4)
	requireNonce(t, l, s, 2)

	// Tags separate operations with equal arguments.
	sig = signIntent(t, l, signer, intent.IncreaseApproval{Spender: accY, Delta: amount(1)}, 0)
	requireFailsClean(t, l, ErrInvalidSignature, func() (*Receipt, error) {
		return l.DecreaseApprovalWithProof(relayer, accY, amount(1), sig, amount(0), s)
	})
}

func TestTransferFromWithProof(t *testing.T) {
	l := newTestLedger(t, nil)
	signer := newSigner(t, proof.Neo)
	s := signer.Address()
	mint(t, l, accX, 1000)
	mint(t, l, s, 5)

	_, err := l.Approve(accX, s, amount(300))
	require.NoError(t, err)

	in := intent.TransferFrom{From: accX, To: accZ, Amount: amount(301)}
	sig := signIntent(t, l, signer, in, 5)
	requireFailsClean(t, l, ErrInsufficientAllowance, func() (*Receipt, error) {
		return l.TransferFromWithProof(relayer, accX, accZ, amount(301), sig, amount(5), s)
	})

	in.Amount = amount(300)
	sig = signIntent(t, l, signer, in, 5)
	r, err := l.TransferFromWithProof(relayer, accX, accZ, amount(300), sig, amount(5), s)
	require.NoError(t, err)
	require.Equal(t, []string{ApprovalEvent, TransferEvent, TransferEvent, MetaTransactionEvent}, eventNames(r))

	requireAllowance(t, l, accX, s, 0)
	requireBalance(t, l, accX, 700)
	requireBalance(t, l, accZ, 300)
	requireBalance(t, l, s, 0)
	requireBalance(t, l, relayer, 5)
	requireNonce(t, l, s, 1)
	requireSupplyInvariant(t, l)

	t.Run("own allowance covers fee jointly", func(t *testing.T) {
		mint(t, l, s, 10)
		_, err := l.Approve(s, s, amount(10))
		require.NoError(t, err)

		in := intent.TransferFrom{From: s, To: accZ, Amount: amount(10)}
		sig := signIntent(t, l, signer, in, 1)
		requireFailsClean(t, l, ErrInsufficientBalance, func() (*Receipt, error) {
			return l.TransferFromWithProof(relayer, s, accZ, amount(10), sig, amount(1), s)
		})
	})
}

func TestMetaWhilePaused(t *testing.T) {
	l := newTestLedger(t, nil)
	signer := newSigner(t, proof.Neo)
	s := signer.Address()
	mint(t, l, s, 100)

	_, err := l.Pause(ownerAcc)
	require.NoError(t, err)

	sig := signIntent(t, l, signer, intent.Transfer{To: accY, Amount: amount(10)}, 1)
	requireFailsClean(t, l, ErrPaused, func() (*Receipt, error) {
		return l.TransferWithProof(relayer, accY, amount(10), sig, amount(1), s)
	})

	t.Run("fee is a debit", func(t *testing.T) {
		sig := signIntent(t, l, signer, intent.Approve{Spender: accY, Amount: amount(10)}, 1)
		requireFailsClean(t, l, ErrPaused, func() (*Receipt, error) {
			return l.ApproveWithProof(relayer, accY, amount(10), sig, amount(1), s)
		})
	})

	t.Run("zero fee", func(t *testing.T) {
		sig := signIntent(t, l, signer, intent.Approve{Spender: accY, Amount: amount(10)}, 0)
		requireFailsClean(t, l, ErrPaused, func() (*Receipt, error) {
			return l.ApproveWithProof(relayer, accY, amount(10), sig, amount(0), s)
		})
	})

	_, err = l.WhitelistForTransfer(ownerAcc, s, true)
	require.NoError(t, err)
	_, err = l.TransferWithProof(relayer, accY, amount(10), sig, amount(1), s)
	require.NoError(t, err)
	requireBalance(t, l, accY, 10)
	requireBalance(t, l, relayer, 1)
	requireNonce(t, l, s, 1)
}

func TestMetaInvalidAmount(t *testing.T) {
	l := newTestLedger(t, nil)
	signer := newSigner(t, proof.Neo)
	s := signer.Address()
	mint(t, l, s, 100)

	sig := signIntent(t, l, signer, intent.Transfer{To: accY, Amount: amount(10)}, 1)
	requireFailsClean(t, l, ErrInvalidAmount, func() (*Receipt, error) {
		return l.TransferWithProof(relayer, accY, amount(10), sig, amount(-1), s)
	})
	requireFailsClean(t, l, ErrInvalidAmount, func() (*Receipt, error) {
		return l.TransferWithProof(relayer, accY, nil, sig, amount(1), s)
	})
}

func TestMetaNonceOverflow(t *testing.T) {
	store := storage.NewMemoryStore()
	l := newTestLedgerWithStore(t, store, nil)
	signer := newSigner(t, proof.Neo)
	s := signer.Address()
	mint(t, l, s, 100)

	cache := storage.NewMemCachedStore(store)
	cache.Put(addrKey(noncePrefix, s), binary.LittleEndian.AppendUint64(nil, math.MaxUint64))
	_, err := cache.PersistSync()
	require.NoError(t, err)
	requireNonce(t, l, s, math.MaxUint64)

	sig := signIntent(t, l, signer, intent.Transfer{To: accY, Amount: amount(10)}, 1)
	requireFailsClean(t, l, ErrArithmeticOverflow, func() (*Receipt, error) {
		return l.TransferWithProof(relayer, accY, amount(10), sig, amount(1), s)
	})
	requireBalance(t, l, s, 100)
	requireBalance(t, l, relayer, 0)
	requireNonce(t, l, s, math.MaxUint64)
}
