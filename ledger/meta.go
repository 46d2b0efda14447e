package ledger

import (
	"fmt"
	"math"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/proofledger/ledger/intent"
	"github.com/nspcc-dev/proofledger/proof"
)

// TransferWithProof transfers amount from the signer to the recipient on
// behalf of the signer. The caller relays the signed intent and receives fee
// from the signer.
//
// It produces Transfer notification for the amount, Transfer notification for
// the fee and MetaTransaction notification.
func (l *Ledger) TransferWithProof(relayer, to util.Uint160, amount *big.Int, sig proof.Signature, fee *big.Int, signer util.Uint160) (*Receipt, error) {
	in := intent.Transfer{To: to, Amount: amount}
	return l.relay("transferWithProof", relayer, in, sig, fee, signer, amount, func(s *snapshot) error {
		return s.transfer(signer, to, amount)
	})
}

// TransferFromWithProof spends signer's allowance on behalf of the signer.
//
// It produces Approval and Transfer notifications of the spending, Transfer
// notification for the fee and MetaTransaction notification.
func (l *Ledger) TransferFromWithProof(relayer, from, to util.Uint160, amount *big.Int, sig proof.Signature, fee *big.Int, signer util.Uint160) (*Receipt, error) {
	in := intent.TransferFrom{From: from, To: to, Amount: amount}
	debit := new(big.Int)
	if from.Equals(signer) {
		debit = amount
	}
	return l.relay("transferFromWithProof", relayer, in, sig, fee, signer, debit, func(s *snapshot) error {
		return s.transferFrom(signer, from, to, amount)
	})
}

// ApproveWithProof sets signer's allowance for the spender on behalf of the
// signer, see Approve.
//
// It produces Approval notification, Transfer notification for the fee and
// MetaTransaction notification.
func (l *Ledger) ApproveWithProof(relayer, spender util.Uint160, amount *big.Int, sig proof.Signature, fee *big.Int, signer util.Uint160) (*Receipt, error) {
	in := intent.Approve{Spender: spender, Amount: amount}
	return l.relay("approveWithProof", relayer, in, sig, fee, signer, new(big.Int), func(s *snapshot) error {
		return s.approve(signer, spender, amount)
	})
}

// IncreaseApprovalWithProof raises signer's allowance for the spender on
// behalf of the signer.
//
// It produces Approval notification, Transfer notification for the fee and
// MetaTransaction notification.
func (l *Ledger) IncreaseApprovalWithProof(relayer, spender util.Uint160, delta *big.Int, sig proof.Signature, fee *big.Int, signer util.Uint160) (*Receipt, error) {
	in := intent.IncreaseApproval{Spender: spender, Delta: delta}
	return l.relay("increaseApprovalWithProof", relayer, in, sig, fee, signer, new(big.Int), func(s *snapshot) error {
		return s.increaseApproval(signer, spender, delta)
	})
}

// DecreaseApprovalWithProof lowers signer's allowance for the spender on
// behalf of the signer, saturating at zero.
//
// It produces Approval notification, Transfer notification for the fee and
// MetaTransaction notification.
func (l *Ledger) DecreaseApprovalWithProof(relayer, spender util.Uint160, delta *big.Int, sig proof.Signature, fee *big.Int, signer util.Uint160) (*Receipt, error) {
	in := intent.DecreaseApproval{Spender: spender, Delta: delta}
	return l.relay("decreaseApprovalWithProof", relayer, in, sig, fee, signer, new(big.Int), func(s *snapshot) error {
		s.decreaseApproval(signer, spender, delta)
		return nil
	})
}

// relay verifies that the signer authorized the intent at its current nonce,
// consumes the nonce, runs op on behalf of the signer and pays fee to the
// relayer. debit is the amount op takes from the signer's own balance.
func (l *Ledger) relay(method string, relayer util.Uint160, in intent.Intent, sig proof.Signature,
	fee *big.Int, signer util.Uint160, debit *big.Int, op func(*snapshot) error) (*Receipt, error) {
	return l.invoke(method, relayer, func(s *snapshot) error {
		if err := checkAmounts(intentAmount(in), fee); err != nil {
			return err
		}

		nonce := s.nonce(signer)
		if s.err != nil {
			return s.err
		}

		msg, err := intent.Message{
			Magic:  l.token.Magic,
			Intent: in,
			Fee:    fee,
			Nonce:  nonce,
		}.Bytes()
		if err != nil {
			return fmt.Errorf("encode intent: %w", err)
		}

		recovered, err := l.scheme.Recover(l.scheme.Digest(msg), sig)
		if err != nil {
			return err
		}
		if !recovered.Equals(signer) {
			return fmt.Errorf("%w: signed by %s, not %s", ErrInvalidSignature, recovered.StringLE(), signer.StringLE())
		}

		if nonce == math.MaxUint64 {
			return fmt.Errorf("%w: nonce of %s", ErrArithmeticOverflow, signer.StringLE())
		}
		s.setNonce(signer, nonce+1)

		total := new(big.Int).Add(debit, fee)
		if err := s.canDebit(signer); err != nil {
			return err
		}
		if bal := s.balance(signer); bal.Cmp(total) < 0 {
			return fmt.Errorf("%w: %s < %s with fee", ErrInsufficientBalance, bal, total)
		}

		if err := op(s); err != nil {
			return err
		}
		if err := s.transfer(signer, relayer, fee); err != nil {
			return err
		}

		s.notifyMeta(signer, relayer, in.Kind(), nonce, fee)
		return nil
	})
}

func intentAmount(in intent.Intent) *big.Int {
	switch v := in.(type) {
	case intent.Transfer:
		return v.Amount
	case intent.TransferFrom:
		return v.Amount
	case intent.Approve:
		return v.Amount
	case intent.IncreaseApproval:
		return v.Delta
	case intent.DecreaseApproval:
		return v.Delta
	default:
		return nil
	}
}
