package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/proofledger/ledger"
	"github.com/nspcc-dev/proofledger/proof"
	"go.uber.org/zap"
)

// Prm groups all parameters of the ledger deployment procedure.
type Prm struct {
	// Writes progress into the log.
	Logger *zap.Logger

	// Storage backend holding (or going to hold) the ledger.
	Store storage.Store

	// Desired initial state. Token must match the deployed one if the ledger
	// already exists.
	Genesis ledger.Genesis

	// Signature scheme for meta transactions, proof.Neo if nil.
	Scheme proof.Scheme
}

// ErrTokenMismatch is returned by Deploy when the store already holds a ledger
// of a different token.
var ErrTokenMismatch = errors.New("deployed token differs from the configured one")

// Deploy brings the ledger in Prm.Store to the state described by Prm.Genesis
// and returns it opened.
//
// Deploy can be called repeatedly with the same parameters. Summary of stages:
//  1. genesis initialization if the store is empty
//  2. token information check
//  3. synchronization of mint agents and whitelist with Prm.Genesis
//
// Roles are only added, never revoked: the third stage is skipped when the
// ledger owner changed since genesis.
func Deploy(ctx context.Context, prm Prm) (*ledger.Ledger, error) {
	if prm.Logger == nil {
		prm.Logger = zap.NewNop()
	}
	lPrm := ledger.Prm{Logger: prm.Logger, Scheme: prm.Scheme}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l, err := ledger.New(prm.Store, lPrm)
	if err != nil {
		if !errors.Is(err, ledger.ErrNotInitialized) {
			return nil, fmt.Errorf("open ledger: %w", err)
		}

		prm.Logger.Info("initializing ledger from genesis...")

		l, rcpt, err := ledger.Init(prm.Store, prm.Genesis, lPrm)
		if err != nil {
			return nil, fmt.Errorf("init ledger: %w", err)
		}

		prm.Logger.Info("ledger successfully initialized",
			zap.Stringer("hash", l.Hash()), zap.Stringer("receipt", rcpt.ID),
			zap.Int("events", len(rcpt.Events)))

		return l, nil
	}

	if l.Token() != prm.Genesis.Token {
		return nil, fmt.Errorf("%w: deployed %q (%s), configured %q (%s)", ErrTokenMismatch,
			l.Token().Name, l.Token().Symbol, prm.Genesis.Token.Name, prm.Genesis.Token.Symbol)
	}

	prm.Logger.Info("ledger is already initialized", zap.Stringer("hash", l.Hash()))

	owner, err := l.Owner()
	if err != nil {
		return nil, fmt.Errorf("read ledger owner: %w", err)
	}
	if !owner.Equals(prm.Genesis.Owner) {
		prm.Logger.Info("ledger owner changed since genesis, skipping roles synchronization",
			zap.Stringer("owner", owner))
		return l, nil
	}

	err = syncRoles(ctx, prm.Logger, "mint agent", prm.Genesis.MintAgents, l.IsMintAgent, func(a util.Uint160) error {
		_, err := l.SetMintAgent(owner, a, true)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = syncRoles(ctx, prm.Logger, "whitelisted holder", prm.Genesis.Whitelist, l.IsWhitelisted, func(a util.Uint160) error {
		_, err := l.WhitelistForTransfer(owner, a, true)
		return err
	})
	if err != nil {
		return nil, err
	}

	return l, nil
}

func syncRoles(ctx context.Context, log *zap.Logger, role string, accs []util.Uint160,
	check func(util.Uint160) (bool, error), enable func(util.Uint160) error) error {
	for i := range accs {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := check(accs[i])
		if err != nil {
			return fmt.Errorf("check %s %s: %w", role, accs[i].StringLE(), err)
		}
		if ok {
			log.Debug("role is already set", zap.String("role", role), zap.Stringer("account", accs[i]))
			continue
		}

		log.Info("setting role...", zap.String("role", role), zap.Stringer("account", accs[i]))

		if err := enable(accs[i]); err != nil {
			return fmt.Errorf("set %s %s: %w", role, accs[i].StringLE(), err)
		}
	}
	return nil
}
