package ledger

import (
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/proofledger/ledger/intent"
)

// Notification names.
const (
	TransferEvent             = "Transfer"
	ApprovalEvent             = "Approval"
	MintEvent                 = "Mint"
	BurnEvent                 = "Burn"
	OwnershipTransferredEvent = "OwnershipTransferred"
	MintAgentChangedEvent     = "MintAgentChanged"
	WhitelistChangedEvent     = "WhitelistChanged"
	PauseEvent                = "Pause"
	UnpauseEvent              = "Unpause"
	MetaTransactionEvent      = "MetaTransaction"
)

func (s *snapshot) notify(name string, items ...stackitem.Item) {
	s.events = append(s.events, state.NotificationEvent{
		ScriptHash: s.hash,
		Name:       name,
		Item:       stackitem.NewArray(items),
	})
}

// hashItem returns Null for nil address (mint source, burn destination).
func hashItem(u *util.Uint160) stackitem.Item {
	if u == nil {
		return stackitem.Null{}
	}
	return stackitem.NewByteArray(u.BytesBE())
}

// intItem copies v, stack items share the underlying value.
func intItem(v *big.Int) stackitem.Item {
	return stackitem.NewBigInteger(new(big.Int).Set(v))
}

func (s *snapshot) notifyTransfer(from, to *util.Uint160, amount *big.Int) {
	s.notify(TransferEvent, hashItem(from), hashItem(to), intItem(amount))
}

func (s *snapshot) notifyApproval(owner, spender util.Uint160, amount *big.Int) {
	s.notify(ApprovalEvent, hashItem(&owner), hashItem(&spender), intItem(amount))
}

func (s *snapshot) notifyMint(to util.Uint160, amount *big.Int) {
	s.notify(MintEvent, hashItem(&to), intItem(amount))
}

func (s *snapshot) notifyBurn(from util.Uint160, amount *big.Int) {
	s.notify(BurnEvent, hashItem(&from), intItem(amount))
}

func (s *snapshot) notifyOwnership(previous *util.Uint160, next util.Uint160) {
	s.notify(OwnershipTransferredEvent, hashItem(previous), hashItem(&next))
}

func (s *snapshot) notifyRole(name string, addr util.Uint160, enabled bool) {
	s.notify(name, hashItem(&addr), stackitem.NewBool(enabled))
}

func (s *snapshot) notifyMeta(signer, relayer util.Uint160, kind intent.Kind, nonce uint64, fee *big.Int) {
	s.notify(MetaTransactionEvent,
		hashItem(&signer),
		hashItem(&relayer),
		stackitem.NewByteArray([]byte(kind)),
		stackitem.NewBigInteger(new(big.Int).SetUint64(nonce)),
		intItem(fee),
	)
}
