package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/proofledger/deploy"
	"github.com/nspcc-dev/proofledger/ledger"
	"github.com/nspcc-dev/proofledger/proof"
	"github.com/urfave/cli"
)

var initCommand = cli.Command{
	Name:   "init",
	Usage:  "Initialize the ledger from the configured genesis (safe to repeat)",
	Action: initLedger,
}

func initLedger(c *cli.Context) error {
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer e.close()

	g, err := e.cfg.BuildGenesis()
	if err != nil {
		return err
	}

	l, err := deploy.Deploy(context.Background(), deploy.Prm{
		Logger:  e.log,
		Store:   e.store,
		Genesis: g,
		Scheme:  e.scheme,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "ledger %s (%s) is ready\n", l.Hash().StringLE(), l.Symbol())
	return nil
}

var queryCommand = cli.Command{
	Name:      "query",
	Usage:     "Print ledger state, account state if an account is given",
	ArgsUsage: "[account [spender]]",
	Action:    query,
}

func query(c *cli.Context) error {
	if c.NArg() > 2 {
		return fmt.Errorf("too many arguments (usage: %s %s)", c.Command.Name, c.Command.ArgsUsage)
	}

	e, err := openLedger(c)
	if err != nil {
		return err
	}
	defer e.close()

	l, w := e.ledger, c.App.Writer

	if c.NArg() == 0 {
		supply, err := l.TotalSupply()
		if err != nil {
			return err
		}
		owner, err := l.Owner()
		if err != nil {
			return err
		}
		paused, err := l.Paused()
		if err != nil {
			return err
		}
		height, err := l.Height()
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "Hash:        %s\n", l.Hash().StringLE())
		fmt.Fprintf(w, "Name:        %s\n", l.Name())
		fmt.Fprintf(w, "Symbol:      %s\n", l.Symbol())
		fmt.Fprintf(w, "Decimals:    %d\n", l.Decimals())
		fmt.Fprintf(w, "Scheme:      %s\n", l.Scheme().Name())
		fmt.Fprintf(w, "TotalSupply: %s\n", e.formatAmount(supply))
		fmt.Fprintf(w, "Owner:       %s\n", e.formatAddress(owner))
		fmt.Fprintf(w, "Paused:      %t\n", paused)
		fmt.Fprintf(w, "Height:      %d\n", height)
		return nil
	}

	acc, err := proof.ParseAddress(c.Args().Get(0))
	if err != nil {
		return err
	}

	if c.NArg() == 2 {
		spender, err := proof.ParseAddress(c.Args().Get(1))
		if err != nil {
			return err
		}
		v, err := l.Allowance(acc, spender)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Allowance: %s\n", e.formatAmount(v))
		return nil
	}

	balance, err := l.BalanceOf(acc)
	if err != nil {
		return err
	}
	nonce, err := l.MetaNonce(acc)
	if err != nil {
		return err
	}
	agent, err := l.IsMintAgent(acc)
	if err != nil {
		return err
	}
	whitelisted, err := l.IsWhitelisted(acc)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Balance:     %s\n", e.formatAmount(balance))
	fmt.Fprintf(w, "MetaNonce:   %d\n", nonce)
	fmt.Fprintf(w, "MintAgent:   %t\n", agent)
	fmt.Fprintf(w, "Whitelisted: %t\n", whitelisted)
	return nil
}

// operation is a direct ledger operation applied on behalf of the caller.
type operation func(c *cli.Context, e *env, caller util.Uint160) (*ledger.Receipt, error)

func directCommand(name, usage, argsUsage string, nargs int, op operation, flags ...cli.Flag) cli.Command {
	return cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: argsUsage,
		Flags:     append([]cli.Flag{callerFlag}, flags...),
		Action: func(c *cli.Context) error {
			if err := checkArgs(c, nargs); err != nil {
				return err
			}
			caller, err := parseCaller(c)
			if err != nil {
				return err
			}

			e, err := openLedger(c)
			if err != nil {
				return err
			}
			defer e.close()

			r, err := op(c, e, caller)
			if err != nil {
				return err
			}
			e.printReceipt(c, r)
			return nil
		},
	}
}

// accountAmount parses <account> <amount> arguments starting from i.
func (e *env) accountAmount(a cli.Args, i int) (util.Uint160, *big.Int, error) {
	acc, err := proof.ParseAddress(a.Get(i))
	if err != nil {
		return util.Uint160{}, nil, err
	}
	v, err := e.parseAmount(a.Get(i + 1))
	if err != nil {
		return util.Uint160{}, nil, err
	}
	return acc, v, nil
}

// accountAmountOp applies f to parsed <account> <amount> arguments.
func accountAmountOp(f func(l *ledger.Ledger, caller, acc util.Uint160, v *big.Int) (*ledger.Receipt, error)) operation {
	return func(c *cli.Context, e *env, caller util.Uint160) (*ledger.Receipt, error) {
		acc, v, err := e.accountAmount(c.Args(), 0)
		if err != nil {
			return nil, err
		}
		return f(e.ledger, caller, acc, v)
	}
}

var (
	transferCommand = directCommand("transfer", "Transfer caller's tokens", "<to> <amount>", 2,
		accountAmountOp((*ledger.Ledger).Transfer))

	approveCommand = directCommand("approve", "Set spender's allowance on caller's tokens", "<spender> <amount>", 2,
		accountAmountOp((*ledger.Ledger).Approve))

	increaseApprovalCommand = directCommand("increase-approval", "Raise spender's allowance", "<spender> <delta>", 2,
		accountAmountOp((*ledger.Ledger).IncreaseApproval))

	decreaseApprovalCommand = directCommand("decrease-approval", "Lower spender's allowance, saturating at zero", "<spender> <delta>", 2,
		accountAmountOp((*ledger.Ledger).DecreaseApproval))

	mintCommand = directCommand("mint", "Create tokens (caller must be a mint agent)", "<to> <amount>", 2,
		accountAmountOp((*ledger.Ledger).Mint))

	transferFromCommand = directCommand("transfer-from", "Spend caller's allowance on the holder's tokens", "<from> <to> <amount>", 3,
		func(c *cli.Context, e *env, caller util.Uint160) (*ledger.Receipt, error) {
			from, err := proof.ParseAddress(c.Args().Get(0))
			if err != nil {
				return nil, err
			}
			to, v, err := e.accountAmount(c.Args(), 1)
			if err != nil {
				return nil, err
			}
			return e.ledger.TransferFrom(caller, from, to, v)
		})

	burnCommand = directCommand("burn", "Destroy caller's tokens", "<amount>", 1,
		func(c *cli.Context, e *env, caller util.Uint160) (*ledger.Receipt, error) {
			v, err := e.parseAmount(c.Args().Get(0))
			if err != nil {
				return nil, err
			}
			return e.ledger.Burn(caller, v)
		})

	transferOwnershipCommand = directCommand("transfer-ownership", "Hand ledger ownership over", "<new owner>", 1,
		func(c *cli.Context, e *env, caller util.Uint160) (*ledger.Receipt, error) {
			acc, err := proof.ParseAddress(c.Args().Get(0))
			if err != nil {
				return nil, err
			}
			return e.ledger.TransferOwnership(caller, acc)
		})

	setMintAgentCommand = directCommand("set-mint-agent", "Grant or revoke (--disable) mint rights", "<agent>", 1,
		roleOp((*ledger.Ledger).SetMintAgent), disableFlag)

	whitelistCommand = directCommand("whitelist", "Allow or forbid (--disable) debits while paused", "<holder>", 1,
		roleOp((*ledger.Ledger).WhitelistForTransfer), disableFlag)

	pauseCommand = directCommand("pause", "Pause debits of non-whitelisted holders", "", 0,
		func(_ *cli.Context, e *env, caller util.Uint160) (*ledger.Receipt, error) {
			return e.ledger.Pause(caller)
		})

	unpauseCommand = directCommand("unpause", "Resume debits", "", 0,
		func(_ *cli.Context, e *env, caller util.Uint160) (*ledger.Receipt, error) {
			return e.ledger.Unpause(caller)
		})
)

var disableFlag = cli.BoolFlag{
	Name:  "disable",
	Usage: "Revoke the role instead of granting it",
}

func roleOp(f func(l *ledger.Ledger, caller, acc util.Uint160, enabled bool) (*ledger.Receipt, error)) operation {
	return func(c *cli.Context, e *env, caller util.Uint160) (*ledger.Receipt, error) {
		acc, err := proof.ParseAddress(c.Args().Get(0))
		if err != nil {
			return nil, err
		}
		return f(e.ledger, caller, acc, !c.Bool(disableFlag.Name))
	}
}
