package ledger

import (
	"fmt"
	"math"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/io"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Token holds immutable token info.
type Token struct {
	// Human readable token name.
	Name string
	// Ticker symbol.
	Symbol string
	// Amount of decimals.
	Decimals int
	// Network magic, binds signed intents to the ledger.
	Magic uint32
}

func (t Token) validate() error {
	if t.Decimals < 0 || t.Decimals > math.MaxUint8 {
		return fmt.Errorf("invalid decimals %d", t.Decimals)
	}
	return nil
}

// EncodeBinary implements io.Serializable.
func (t Token) EncodeBinary(w *io.BinWriter) {
	w.WriteString(t.Name)
	w.WriteString(t.Symbol)
	w.WriteB(byte(t.Decimals))
	w.WriteU32LE(t.Magic)
}

// DecodeBinary implements io.Serializable.
func (t *Token) DecodeBinary(r *io.BinReader) {
	t.Name = r.ReadString()
	t.Symbol = r.ReadString()
	t.Decimals = int(r.ReadB())
	t.Magic = r.ReadU32LE()
}

// Bytes returns binary representation of token info.
func (t Token) Bytes() []byte {
	w := io.NewBufBinWriter()
	t.EncodeBinary(w.BinWriter)
	return w.Bytes()
}

// FromBytes decodes token info from its binary representation.
func (t *Token) FromBytes(b []byte) error {
	r := io.NewBinReaderFromBuf(b)
	t.DecodeBinary(r)
	return r.Err
}

// Transfer moves amount from one holder to another. Self-transfer is valid.
//
// It produces Transfer notification.
func (l *Ledger) Transfer(from, to util.Uint160, amount *big.Int) (*Receipt, error) {
	return l.invoke("transfer", from, func(s *snapshot) error {
		if err := checkAmount(amount); err != nil {
			return err
		}
		return s.transfer(from, to, amount)
	})
}

// Approve sets the amount spender may transfer from owner. Changing a
// nonzero allowance to another nonzero value is rejected with
// ErrAllowanceAlreadySet; reset to zero is always allowed.
//
// It produces Approval notification.
func (l *Ledger) Approve(owner, spender util.Uint160, amount *big.Int) (*Receipt, error) {
	return l.invoke("approve", owner, func(s *snapshot) error {
		if err := checkAmount(amount); err != nil {
			return err
		}
		return s.approve(owner, spender, amount)
	})
}

// IncreaseApproval adds delta to the allowance.
//
// It produces Approval notification with resulting allowance.
func (l *Ledger) IncreaseApproval(owner, spender util.Uint160, delta *big.Int) (*Receipt, error) {
	return l.invoke("increaseApproval", owner, func(s *snapshot) error {
		if err := checkAmount(delta); err != nil {
			return err
		}
		return s.increaseApproval(owner, spender, delta)
	})
}

// DecreaseApproval subtracts delta from the allowance, the result saturates
// at zero.
//
// It produces Approval notification with resulting allowance.
func (l *Ledger) DecreaseApproval(owner, spender util.Uint160, delta *big.Int) (*Receipt, error) {
	return l.invoke("decreaseApproval", owner, func(s *snapshot) error {
		if err := checkAmount(delta); err != nil {
			return err
		}
		s.decreaseApproval(owner, spender, delta)
		return nil
	})
}

// TransferFrom moves amount from one holder to another spending the caller's
// allowance.
//
// It produces Approval notification with remaining allowance and Transfer
// notification.
func (l *Ledger) TransferFrom(spender, from, to util.Uint160, amount *big.Int) (*Receipt, error) {
	return l.invoke("transferFrom", spender, func(s *snapshot) error {
		if err := checkAmount(amount); err != nil {
			return err
		}
		return s.transferFrom(spender, from, to, amount)
	})
}

// Mint issues amount to the holder. It can be invoked only by mint agents.
//
// It produces Transfer notification from null address and Mint notification.
func (l *Ledger) Mint(agent, to util.Uint160, amount *big.Int) (*Receipt, error) {
	return l.invoke("mint", agent, func(s *snapshot) error {
		if err := checkAmount(amount); err != nil {
			return err
		}
		if !s.flag(mintAgentPrefix, agent) {
			return fmt.Errorf("%w: %s is not a mint agent", ErrUnauthorized, agent.StringLE())
		}
		return s.mint(to, amount)
	})
}

// Burn destroys amount of the caller's tokens.
//
// It produces Transfer notification to null address and Burn notification.
func (l *Ledger) Burn(from util.Uint160, amount *big.Int) (*Receipt, error) {
	return l.invoke("burn", from, func(s *snapshot) error {
		if err := checkAmount(amount); err != nil {
			return err
		}
		return s.burn(from, amount)
	})
}

// canDebit checks that the holder may be debited with respect to the pause
// state. Zero amounts are gated too.
func (s *snapshot) canDebit(holder util.Uint160) error {
	if !s.paused() {
		return nil
	}
	if !s.flag(whitelistPrefix, holder) {
		return fmt.Errorf("%w: %s is not whitelisted", ErrPaused, holder.StringLE())
	}
	return nil
}

func (s *snapshot) debit(holder util.Uint160, amount *big.Int) error {
	if err := s.canDebit(holder); err != nil {
		return err
	}
	bal := s.balance(holder)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s < %s", ErrInsufficientBalance, bal, amount)
	}
	res, err := sub(bal, amount)
	if err != nil {
		return err
	}
	s.setBalance(holder, res)
	return nil
}

func (s *snapshot) credit(holder util.Uint160, amount *big.Int) error {
	res, err := add(s.balance(holder), amount)
	if err != nil {
		return err
	}
	s.setBalance(holder, res)
	return nil
}

func (s *snapshot) transfer(from, to util.Uint160, amount *big.Int) error {
	if err := s.debit(from, amount); err != nil {
		return err
	}
	if err := s.credit(to, amount); err != nil {
		return err
	}
	s.notifyTransfer(&from, &to, amount)
	return nil
}

func (s *snapshot) approve(owner, spender util.Uint160, amount *big.Int) error {
	if amount.Sign() != 0 && s.allowance(owner, spender).Sign() != 0 {
		return fmt.Errorf("%w: reset allowance of %s to zero first", ErrAllowanceAlreadySet, spender.StringLE())
	}
	s.setAllowance(owner, spender, amount)
	s.notifyApproval(owner, spender, amount)
	return nil
}

func (s *snapshot) increaseApproval(owner, spender util.Uint160, delta *big.Int) error {
	res, err := add(s.allowance(owner, spender), delta)
	if err != nil {
		return err
	}
	s.setAllowance(owner, spender, res)
	s.notifyApproval(owner, spender, res)
	return nil
}

func (s *snapshot) decreaseApproval(owner, spender util.Uint160, delta *big.Int) {
	res := new(big.Int)
	if cur := s.allowance(owner, spender); cur.Cmp(delta) > 0 {
		res.Sub(cur, delta)
	}
	s.setAllowance(owner, spender, res)
	s.notifyApproval(owner, spender, res)
}

func (s *snapshot) transferFrom(spender, from, to util.Uint160, amount *big.Int) error {
	if err := s.canDebit(from); err != nil {
		return err
	}

	allowed := s.allowance(from, spender)
	if allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s < %s", ErrInsufficientAllowance, allowed, amount)
	}
	rest, err := sub(allowed, amount)
	if err != nil {
		return err
	}
	s.setAllowance(from, spender, rest)
	s.notifyApproval(from, spender, rest)

	return s.transfer(from, to, amount)
}

func (s *snapshot) mint(to util.Uint160, amount *big.Int) error {
	supply, err := add(s.supply(), amount)
	if err != nil {
		return err
	}
	if err := s.credit(to, amount); err != nil {
		return err
	}
	s.setSupply(supply)

	s.notifyTransfer(nil, &to, amount)
	s.notifyMint(to, amount)
	return nil
}

func (s *snapshot) burn(from util.Uint160, amount *big.Int) error {
	if err := s.debit(from, amount); err != nil {
		return err
	}
	supply, err := sub(s.supply(), amount)
	if err != nil {
		return fmt.Errorf("burn exceeds total supply: %w", err)
	}
	s.setSupply(supply)

	s.notifyTransfer(&from, nil, amount)
	s.notifyBurn(from, amount)
	return nil
}
