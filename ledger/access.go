package ledger

import (
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/util"
)

func (s *snapshot) checkOwner(caller util.Uint160) error {
	if owner := s.owner(); !owner.Equals(caller) {
		return fmt.Errorf("%w: %s is not the owner", ErrUnauthorized, caller.StringLE())
	}
	return nil
}

// TransferOwnership passes administrative rights to a new owner. It can be
// invoked only by the current owner, whose rights are revoked immediately.
//
// It produces OwnershipTransferred notification.
func (l *Ledger) TransferOwnership(caller, newOwner util.Uint160) (*Receipt, error) {
	return l.invoke("transferOwnership", caller, func(s *snapshot) error {
		if err := s.checkOwner(caller); err != nil {
			return err
		}
		s.setOwner(newOwner)
		s.notifyOwnership(&caller, newOwner)
		return nil
	})
}

// SetMintAgent grants or revokes minting rights. It can be invoked only by
// the owner.
//
// It produces MintAgentChanged notification.
func (l *Ledger) SetMintAgent(caller, agent util.Uint160, enabled bool) (*Receipt, error) {
	return l.invoke("setMintAgent", caller, func(s *snapshot) error {
		if err := s.checkOwner(caller); err != nil {
			return err
		}
		s.setFlag(mintAgentPrefix, agent, enabled)
		s.notifyRole(MintAgentChangedEvent, agent, enabled)
		return nil
	})
}

// WhitelistForTransfer adds or removes the holder from the set of holders
// allowed to move tokens while the ledger is paused. It can be invoked only
// by the owner.
//
// It produces WhitelistChanged notification.
func (l *Ledger) WhitelistForTransfer(caller, holder util.Uint160, enabled bool) (*Receipt, error) {
	return l.invoke("whitelistForTransfer", caller, func(s *snapshot) error {
		if err := s.checkOwner(caller); err != nil {
			return err
		}
		s.setFlag(whitelistPrefix, holder, enabled)
		s.notifyRole(WhitelistChangedEvent, holder, enabled)
		return nil
	})
}

// Pause blocks token movements of non-whitelisted holders. It can be invoked
// only by the owner. Pausing a paused ledger fails with ErrAlreadyPaused.
//
// It produces Pause notification.
func (l *Ledger) Pause(caller util.Uint160) (*Receipt, error) {
	return l.invoke("pause", caller, func(s *snapshot) error {
		if err := s.checkOwner(caller); err != nil {
			return err
		}
		if s.paused() {
			return ErrAlreadyPaused
		}
		s.setPaused(true)
		s.notify(PauseEvent)
		return nil
	})
}

// Unpause lifts the pause. It can be invoked only by the owner. Unpausing a
// running ledger fails with ErrNotPaused.
//
// It produces Unpause notification.
func (l *Ledger) Unpause(caller util.Uint160) (*Receipt, error) {
	return l.invoke("unpause", caller, func(s *snapshot) error {
		if err := s.checkOwner(caller); err != nil {
			return err
		}
		if !s.paused() {
			return ErrNotPaused
		}
		s.setPaused(false)
		s.notify(UnpauseEvent)
		return nil
	})
}
