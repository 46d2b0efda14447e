package ledger

import (
	"errors"

	"github.com/nspcc-dev/proofledger/proof"
)

var (
	// ErrUnauthorized is returned when the caller lacks the role required by
	// the operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPaused is returned when the ledger is paused and the debited holder
	// is not whitelisted.
	ErrPaused = errors.New("ledger is paused")

	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrAllowanceAlreadySet is returned by Approve changing a nonzero
	// allowance to another nonzero value. The allowance must be reset to zero
	// first.
	ErrAllowanceAlreadySet = errors.New("allowance is already set")

	// ErrInvalidSignature is returned when the address recovered from a meta
	// transaction signature differs from the claimed signer.
	ErrInvalidSignature = proof.ErrInvalidSignature

	ErrArithmeticOverflow  = errors.New("arithmetic overflow")
	ErrArithmeticUnderflow = errors.New("arithmetic underflow")

	// ErrInvalidAmount is returned for nil, negative or out of range amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	ErrAlreadyPaused = errors.New("ledger is already paused")
	ErrNotPaused     = errors.New("ledger is not paused")

	// ErrNotInitialized is returned by New for a store without genesis.
	ErrNotInitialized = errors.New("ledger is not initialized")

	// ErrAlreadyInitialized is returned by Init for a store with genesis.
	ErrAlreadyInitialized = errors.New("ledger is already initialized")

	// ErrVersionMismatch is returned when the store schema is not supported.
	ErrVersionMismatch = errors.New("storage version mismatch")
)
