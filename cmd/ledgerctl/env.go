package main

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/proofledger/config"
	"github.com/nspcc-dev/proofledger/ledger"
	"github.com/nspcc-dev/proofledger/proof"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// env is a configured ledger opened for a single command.
type env struct {
	cfg    *config.Config
	log    *zap.Logger
	scheme proof.Scheme
	store  storage.Store
	ledger *ledger.Ledger
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	p := c.GlobalString("config")
	if p == "" {
		return nil, errors.New("missing configuration file, use --config")
	}
	return config.Load(p)
}

// newEnv reads configuration and opens the storage. The ledger itself is
// opened by openLedger or deployed by the init command.
func newEnv(c *cli.Context) (*env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	log, err := cfg.Logger.Build()
	if err != nil {
		return nil, err
	}

	scheme, err := cfg.ProofScheme()
	if err != nil {
		return nil, err
	}

	store, err := cfg.OpenStore()
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:    cfg,
		log:    log,
		scheme: scheme,
		store:  store,
	}, nil
}

// openLedger opens an initialized ledger from the configured storage.
func openLedger(c *cli.Context) (*env, error) {
	e, err := newEnv(c)
	if err != nil {
		return nil, err
	}

	e.ledger, err = ledger.New(e.store, ledger.Prm{Logger: e.log, Scheme: e.scheme})
	if err != nil {
		e.close()
		if errors.Is(err, ledger.ErrNotInitialized) {
			return nil, fmt.Errorf("%w, run init first", err)
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return e, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn("failed to close storage", zap.Error(err))
	}
	_ = e.log.Sync()
}

func (e *env) decimals() int {
	return e.cfg.Ledger.Decimals
}

func (e *env) parseAmount(s string) (*big.Int, error) {
	v, err := fixedn.FromString(s, e.decimals())
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}

func (e *env) formatAmount(v *big.Int) string {
	return fixedn.ToString(v, e.decimals())
}

func (e *env) formatAddress(u util.Uint160) string {
	return proof.FormatAddress(e.scheme, u)
}

// callerFlag names the account on whose behalf a direct operation is
// applied.
var callerFlag = cli.StringFlag{
	Name:  "caller",
	Usage: "Account invoking the operation",
}

func parseCaller(c *cli.Context) (util.Uint160, error) {
	s := c.String(callerFlag.Name)
	if s == "" {
		return util.Uint160{}, errors.New("missing --caller")
	}
	return proof.ParseAddress(s)
}

// checkArgs checks the number of positional arguments.
func checkArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return fmt.Errorf("expected %d arguments, got %d (usage: %s %s)", n, c.NArg(), c.Command.Name, c.Command.ArgsUsage)
	}
	return nil
}

func (e *env) printReceipt(c *cli.Context, r *ledger.Receipt) {
	w := c.App.Writer
	fmt.Fprintf(w, "%s %s at height %d (caller %s)\n", r.Method, r.ID, r.Height, e.formatAddress(r.Caller))
	for i := range r.Events {
		fmt.Fprintf(w, "  %s\n", e.describeEvent(r.Events[i]))
	}
}

func (e *env) describeEvent(ev state.NotificationEvent) string {
	res := ev.Name
	if ev.Item == nil {
		return res
	}
	for _, it := range ev.Item.Value().([]stackitem.Item) {
		res += " " + e.describeItem(it)
	}
	return res
}

func (e *env) describeItem(it stackitem.Item) string {
	switch it.Type() {
	case stackitem.AnyT:
		return "-"
	case stackitem.BooleanT:
		b, _ := it.TryBool()
		return fmt.Sprint(b)
	case stackitem.IntegerT:
		v, _ := it.TryInteger()
		return v.String()
	default:
		b, err := it.TryBytes()
		if err != nil {
			return it.Type().String()
		}
		if len(b) == util.Uint160Size {
			u, _ := util.Uint160DecodeBytesBE(b)
			return e.formatAddress(u)
		}
		return string(b)
	}
}
