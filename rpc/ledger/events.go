// Package ledger contains typed decoders for notifications of the proof ledger.
package ledger

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// TransferEvent represents "Transfer" event emitted by the ledger. From is
// nil for minting, To is nil for burning.
type TransferEvent struct {
	From   *util.Uint160
	To     *util.Uint160
	Amount *big.Int
}

// ApprovalEvent represents "Approval" event emitted by the ledger.
type ApprovalEvent struct {
	Owner   util.Uint160
	Spender util.Uint160
	Amount  *big.Int
}

// MintEvent represents "Mint" event emitted by the ledger.
type MintEvent struct {
	To     util.Uint160
	Amount *big.Int
}

// BurnEvent represents "Burn" event emitted by the ledger.
type BurnEvent struct {
	From   util.Uint160
	Amount *big.Int
}

// OwnershipTransferredEvent represents "OwnershipTransferred" event emitted by
// the ledger. Previous is nil at genesis.
type OwnershipTransferredEvent struct {
	Previous *util.Uint160
	Owner    util.Uint160
}

// MintAgentChangedEvent represents "MintAgentChanged" event emitted by the ledger.
type MintAgentChangedEvent struct {
	Agent   util.Uint160
	Enabled bool
}

// WhitelistChangedEvent represents "WhitelistChanged" event emitted by the ledger.
type WhitelistChangedEvent struct {
	Holder  util.Uint160
	Enabled bool
}

// PauseEvent represents "Pause" event emitted by the ledger.
type PauseEvent struct{}

// UnpauseEvent represents "Unpause" event emitted by the ledger.
type UnpauseEvent struct{}

// MetaTransactionEvent represents "MetaTransaction" event emitted by the ledger.
type MetaTransactionEvent struct {
	Signer  util.Uint160
	Relayer util.Uint160
	Kind    string
	Nonce   *big.Int
	Fee     *big.Int
}

type event interface {
	FromStackItem(item *stackitem.Array) error
}

func eventsByName[T any, PT interface {
	*T
	event
}](name string, events []state.NotificationEvent) ([]*T, error) {
	var res []*T
	for i, e := range events {
		if e.Name != name {
			continue
		}
		ev := PT(new(T))
		if err := ev.FromStackItem(e.Item); err != nil {
			return nil, fmt.Errorf("failed to deserialize %s event #%d: %w", name, i, err)
		}
		res = append(res, (*T)(ev))
	}
	return res, nil
}

// TransferEventsFromNotifications retrieves a set of all emitted events with
// "Transfer" name from the provided notifications.
func TransferEventsFromNotifications(events []state.NotificationEvent) ([]*TransferEvent, error) {
	return eventsByName[TransferEvent]("Transfer", events)
}

// ApprovalEventsFromNotifications retrieves a set of all emitted events with
// "Approval" name from the provided notifications.
func ApprovalEventsFromNotifications(events []state.NotificationEvent) ([]*ApprovalEvent, error) {
	return eventsByName[ApprovalEvent]("Approval", events)
}

// MintEventsFromNotifications retrieves a set of all emitted events with
// "Mint" name from the provided notifications.
func MintEventsFromNotifications(events []state.NotificationEvent) ([]*MintEvent, error) {
	return eventsByName[MintEvent]("Mint", events)
}

// BurnEventsFromNotifications retrieves a set of all emitted events with
// "Burn" name from the provided notifications.
func BurnEventsFromNotifications(events []state.NotificationEvent) ([]*BurnEvent, error) {
	return eventsByName[BurnEvent]("Burn", events)
}

// OwnershipTransferredEventsFromNotifications retrieves a set of all emitted
// events with "OwnershipTransferred" name from the provided notifications.
func OwnershipTransferredEventsFromNotifications(events []state.NotificationEvent) ([]*OwnershipTransferredEvent, error) {
	return eventsByName[OwnershipTransferredEvent]("OwnershipTransferred", events)
}

// MintAgentChangedEventsFromNotifications retrieves a set of all emitted
// events with "MintAgentChanged" name from the provided notifications.
func MintAgentChangedEventsFromNotifications(events []state.NotificationEvent) ([]*MintAgentChangedEvent, error) {
	return eventsByName[MintAgentChangedEvent]("MintAgentChanged", events)
}

// WhitelistChangedEventsFromNotifications retrieves a set of all emitted
// events with "WhitelistChanged" name from the provided notifications.
func WhitelistChangedEventsFromNotifications(events []state.NotificationEvent) ([]*WhitelistChangedEvent, error) {
	return eventsByName[WhitelistChangedEvent]("WhitelistChanged", events)
}

// PauseEventsFromNotifications retrieves a set of all emitted events with
// "Pause" name from the provided notifications.
func PauseEventsFromNotifications(events []state.NotificationEvent) ([]*PauseEvent, error) {
	return eventsByName[PauseEvent]("Pause", events)
}

// UnpauseEventsFromNotifications retrieves a set of all emitted events with
// "Unpause" name from the provided notifications.
func UnpauseEventsFromNotifications(events []state.NotificationEvent) ([]*UnpauseEvent, error) {
	return eventsByName[UnpauseEvent]("Unpause", events)
}

// MetaTransactionEventsFromNotifications retrieves a set of all emitted events
// with "MetaTransaction" name from the provided notifications.
func MetaTransactionEventsFromNotifications(events []state.NotificationEvent) ([]*MetaTransactionEvent, error) {
	return eventsByName[MetaTransactionEvent]("MetaTransaction", events)
}

func fields(item *stackitem.Array, n int) ([]stackitem.Item, error) {
	if item == nil {
		return nil, errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return nil, errors.New("not an array")
	}
	if len(arr) != n {
		return nil, errors.New("wrong number of structure elements")
	}
	return arr, nil
}

func toUint160(item stackitem.Item) (util.Uint160, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}
	u, err := util.Uint160DecodeBytesBE(b)
	if err != nil {
		return util.Uint160{}, err
	}
	return u, nil
}

func toNullableUint160(item stackitem.Item) (*util.Uint160, error) {
	if _, ok := item.(stackitem.Null); ok {
		return nil, nil
	}
	u, err := toUint160(item)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FromStackItem converts provided [stackitem.Array] to TransferEvent or
// returns an error if it's not possible to do to so.
func (e *TransferEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 3)
	if err != nil {
		return err
	}

	var index = -1
	index++
	e.From, err = toNullableUint160(arr[index])
	if err != nil {
		return fmt.Errorf("field From: %w", err)
	}

	index++
	e.To, err = toNullableUint160(arr[index])
	if err != nil {
		return fmt.Errorf("field To: %w", err)
	}

	index++
	e.Amount, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}

	return nil
}

// FromStackItem converts provided [stackitem.Array] to ApprovalEvent or
// returns an error if it's not possible to do to so.
func (e *ApprovalEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 3)
	if err != nil {
		return err
	}

	var index = -1
	index++
	e.Owner, err = toUint160(arr[index])
	if err != nil {
		return fmt.Errorf("field Owner: %w", err)
	}

	index++
	e.Spender, err = toUint160(arr[index])
	if err != nil {
		return fmt.Errorf("field Spender: %w", err)
	}

	index++
	e.Amount, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}

	return nil
}

// FromStackItem converts provided [stackitem.Array] to MintEvent or
// returns an error if it's not possible to do to so.
func (e *MintEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 2)
	if err != nil {
		return err
	}

	e.To, err = toUint160(arr[0])
	if err != nil {
		return fmt.Errorf("field To: %w", err)
	}
	e.Amount, err = arr[1].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}
	return nil
}

// FromStackItem converts provided [stackitem.Array] to BurnEvent or
// returns an error if it's not possible to do to so.
func (e *BurnEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 2)
	if err != nil {
		return err
	}

	e.From, err = toUint160(arr[0])
	if err != nil {
		return fmt.Errorf("field From: %w", err)
	}
	e.Amount, err = arr[1].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}
	return nil
}

// FromStackItem converts provided [stackitem.Array] to
// OwnershipTransferredEvent or returns an error if it's not possible to do to
// so.
func (e *OwnershipTransferredEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 2)
	if err != nil {
		return err
	}

	e.Previous, err = toNullableUint160(arr[0])
	if err != nil {
		return fmt.Errorf("field Previous: %w", err)
	}
	e.Owner, err = toUint160(arr[1])
	if err != nil {
		return fmt.Errorf("field Owner: %w", err)
	}
	return nil
}

// FromStackItem converts provided [stackitem.Array] to MintAgentChangedEvent
// or returns an error if it's not possible to do to so.
func (e *MintAgentChangedEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 2)
	if err != nil {
		return err
	}

	e.Agent, err = toUint160(arr[0])
	if err != nil {
		return fmt.Errorf("field Agent: %w", err)
	}
	e.Enabled, err = arr[1].TryBool()
	if err != nil {
		return fmt.Errorf("field Enabled: %w", err)
	}
	return nil
}

// FromStackItem converts provided [stackitem.Array] to WhitelistChangedEvent
// or returns an error if it's not possible to do to so.
func (e *WhitelistChangedEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 2)
	if err != nil {
		return err
	}

	e.Holder, err = toUint160(arr[0])
	if err != nil {
		return fmt.Errorf("field Holder: %w", err)
	}
	e.Enabled, err = arr[1].TryBool()
	if err != nil {
		return fmt.Errorf("field Enabled: %w", err)
	}
	return nil
}

// FromStackItem converts provided [stackitem.Array] to PauseEvent or
// returns an error if it's not possible to do to so.
func (e *PauseEvent) FromStackItem(item *stackitem.Array) error {
	_, err := fields(item, 0)
	return err
}

// FromStackItem converts provided [stackitem.Array] to UnpauseEvent or
// returns an error if it's not possible to do to so.
func (e *UnpauseEvent) FromStackItem(item *stackitem.Array) error {
	_, err := fields(item, 0)
	return err
}

// FromStackItem converts provided [stackitem.Array] to MetaTransactionEvent
// or returns an error if it's not possible to do to so.
func (e *MetaTransactionEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 5)
	if err != nil {
		return err
	}

	var index = -1
	index++
	e.Signer, err = toUint160(arr[index])
	if err != nil {
		return fmt.Errorf("field Signer: %w", err)
	}

	index++
	e.Relayer, err = toUint160(arr[index])
	if err != nil {
		return fmt.Errorf("field Relayer: %w", err)
	}

	index++
	kind, err := arr[index].TryBytes()
	if err != nil {
		return fmt.Errorf("field Kind: %w", err)
	}
	e.Kind = string(kind)

	index++
	e.Nonce, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Nonce: %w", err)
	}

	index++
	e.Fee, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Fee: %w", err)
	}

	return nil
}
