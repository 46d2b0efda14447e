/*
Package intent defines messages signed by holders to authorize ledger
operations submitted by relayers.

Each operation kind has its own type with a fixed argument order. A Message
binds the intent to a ledger instance (network magic), the relayer fee and the
signer's meta nonce. Its binary form is

	version (1 byte) ‖ magic (uint32 LE) ‖ kind (var string) ‖ arguments ‖
	fee (32 bytes BE) ‖ nonce (uint64 LE)

where addresses are 20 raw bytes and amounts are 32-byte big-endian unsigned
integers.
*/
package intent

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/io"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Version is the current message encoding version.
const Version = 1

// amountSize is the size of an encoded amount.
const amountSize = 32

// Kind is an operation tag included into signed messages.
type Kind string

// Operation kinds.
const (
	KindTransfer         Kind = "transfer"
	KindTransferFrom     Kind = "transferFrom"
	KindApprove          Kind = "approve"
	KindIncreaseApproval Kind = "increaseApproval"
	KindDecreaseApproval Kind = "decreaseApproval"
)

// ErrInvalidAmount is returned on encoding of a nil, negative or too big amount.
var ErrInvalidAmount = errors.New("invalid amount")

// Intent is an operation a holder authorizes.
type Intent interface {
	Kind() Kind
	EncodeBinary(w *io.BinWriter)
}

// Transfer authorizes moving Amount from the signer to To.
type Transfer struct {
	To     util.Uint160
	Amount *big.Int
}

// TransferFrom authorizes the signer to spend its allowance on From.
type TransferFrom struct {
	From   util.Uint160
	To     util.Uint160
	Amount *big.Int
}

// Approve authorizes setting signer's allowance for Spender.
type Approve struct {
	Spender util.Uint160
	Amount  *big.Int
}

// IncreaseApproval authorizes raising signer's allowance for Spender.
type IncreaseApproval struct {
	Spender util.Uint160
	Delta   *big.Int
}

// DecreaseApproval authorizes lowering signer's allowance for Spender.
type DecreaseApproval struct {
	Spender util.Uint160
	Delta   *big.Int
}

func (Transfer) Kind() Kind         { return KindTransfer }
func (TransferFrom) Kind() Kind     { return KindTransferFrom }
func (Approve) Kind() Kind          { return KindApprove }
func (IncreaseApproval) Kind() Kind { return KindIncreaseApproval }
func (DecreaseApproval) Kind() Kind { return KindDecreaseApproval }

func (t Transfer) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(t.To.BytesBE())
	writeAmount(w, t.Amount)
}

func (t *Transfer) DecodeBinary(r *io.BinReader) {
	r.ReadBytes(t.To[:])
	t.Amount = readAmount(r)
}

func (t TransferFrom) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(t.From.BytesBE())
	w.WriteBytes(t.To.BytesBE())
	writeAmount(w, t.Amount)
}

func (t *TransferFrom) DecodeBinary(r *io.BinReader) {
	r.ReadBytes(t.From[:])
	r.ReadBytes(t.To[:])
	t.Amount = readAmount(r)
}

func (a Approve) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(a.Spender.BytesBE())
	writeAmount(w, a.Amount)
}

func (a *Approve) DecodeBinary(r *io.BinReader) {
	r.ReadBytes(a.Spender[:])
	a.Amount = readAmount(r)
}

func (a IncreaseApproval) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(a.Spender.BytesBE())
	writeAmount(w, a.Delta)
}

func (a *IncreaseApproval) DecodeBinary(r *io.BinReader) {
	r.ReadBytes(a.Spender[:])
	a.Delta = readAmount(r)
}

func (a DecreaseApproval) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(a.Spender.BytesBE())
	writeAmount(w, a.Delta)
}

func (a *DecreaseApproval) DecodeBinary(r *io.BinReader) {
	r.ReadBytes(a.Spender[:])
	a.Delta = readAmount(r)
}

// Message is an intent bound to the ledger, fee and signer's nonce.
type Message struct {
	Magic  uint32
	Intent Intent
	Fee    *big.Int
	Nonce  uint64
}

// Bytes returns the canonical binary form of the message. This is what
// holders sign.
func (m Message) Bytes() ([]byte, error) {
	if m.Intent == nil {
		return nil, errors.New("missing intent")
	}

	w := io.NewBufBinWriter()
	w.WriteB(Version)
	w.WriteU32LE(m.Magic)
	w.WriteString(string(m.Intent.Kind()))
	m.Intent.EncodeBinary(w.BinWriter)
	writeAmount(w.BinWriter, m.Fee)
	w.WriteU64LE(m.Nonce)
	if w.Err != nil {
		return nil, w.Err
	}
	return w.Bytes(), nil
}

// Decode parses the canonical binary form of a message.
func Decode(b []byte) (Message, error) {
	var m Message

	r := io.NewBinReaderFromBuf(b)
	if v := r.ReadB(); r.Err == nil && v != Version {
		return m, fmt.Errorf("unsupported message version %d", v)
	}
	m.Magic = r.ReadU32LE()
	kind := Kind(r.ReadString())
	if r.Err != nil {
		return m, fmt.Errorf("decode header: %w", r.Err)
	}

	switch kind {
	case KindTransfer:
		v := new(Transfer)
		v.DecodeBinary(r)
		m.Intent = *v
	case KindTransferFrom:
		v := new(TransferFrom)
		v.DecodeBinary(r)
		m.Intent = *v
	case KindApprove:
		v := new(Approve)
		v.DecodeBinary(r)
		m.Intent = *v
	case KindIncreaseApproval:
		v := new(IncreaseApproval)
		v.DecodeBinary(r)
		m.Intent = *v
	case KindDecreaseApproval:
		v := new(DecreaseApproval)
		v.DecodeBinary(r)
		m.Intent = *v
	default:
		return m, fmt.Errorf("unknown intent kind %q", kind)
	}

	m.Fee = readAmount(r)
	m.Nonce = r.ReadU64LE()
	if r.Err != nil {
		return m, fmt.Errorf("decode %s message: %w", kind, r.Err)
	}

	enc, err := m.Bytes()
	if err != nil {
		return m, err
	}
	if !bytes.Equal(enc, b) {
		return m, errors.New("trailing data after message")
	}
	return m, nil
}

func writeAmount(w *io.BinWriter, v *big.Int) {
	if w.Err != nil {
		return
	}
	if v == nil || v.Sign() < 0 || v.BitLen() > amountSize*8 {
		w.Err = fmt.Errorf("%w: %v", ErrInvalidAmount, v)
		return
	}
	var buf [amountSize]byte
	w.WriteBytes(v.FillBytes(buf[:]))
}

func readAmount(r *io.BinReader) *big.Int {
	var buf [amountSize]byte
	r.ReadBytes(buf[:])
	return new(big.Int).SetBytes(buf[:])
}
