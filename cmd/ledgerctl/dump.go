package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"slices"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/proofledger/dump"
	"github.com/nspcc-dev/proofledger/ledger"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/urfave/cli"
)

// dumpedLedgerName is the name ledgerctl dumps the ledger under.
const dumpedLedgerName = "ledger"

var dirFlag = cli.StringFlag{
	Name:  "dir",
	Usage: "Directory with dumps",
	Value: "testdata",
}

var dumpCommand = cli.Command{
	Name:  "dump",
	Usage: "Dump the ledger state into files",
	Flags: []cli.Flag{
		dirFlag,
		cli.StringFlag{
			Name:  "label",
			Usage: "Label of the ledger environment (e.g. 'testnet')",
		},
	},
	Action: dumpLedger,
}

func dumpLedger(c *cli.Context) error {
	label := c.String("label")
	if label == "" {
		return errors.New("missing --label")
	}
	if strings.Contains(label, "-") {
		return errors.New("label must not contain '-'")
	}
	dir := c.String(dirFlag.Name)

	err := os.MkdirAll(dir, 0700)
	if err != nil {
		return fmt.Errorf("create root dir: %w", err)
	}

	e, err := openLedger(c)
	if err != nil {
		return err
	}
	defer e.close()

	height, err := e.ledger.Height()
	if err != nil {
		return err
	}
	id := dump.ID{Label: label, Height: height}

	d, err := dump.NewCreator(dir, id)
	if err != nil {
		return fmt.Errorf("init local dumper: %w", err)
	}
	defer d.Close()

	if err = d.AddLedger(dumpedLedgerName, e.ledger); err != nil {
		return err
	}

	if err = d.Flush(); err != nil {
		return fmt.Errorf("flush dump: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "ledger is successfully dumped to '%s/' as %s\n", dir, id)
	return nil
}

var diffCommand = cli.Command{
	Name:      "diff",
	Usage:     "Compare two ledger dumps",
	ArgsUsage: "<dump ID> <dump ID>",
	Flags:     []cli.Flag{dirFlag},
	Action:    diffDumps,
}

type dumpContent struct {
	id      dump.ID
	states  map[string]dump.State
	storage map[string]map[string][]byte
}

func readDumpContent(dir, s string) (*dumpContent, error) {
	id, err := dump.ParseID(s)
	if err != nil {
		return nil, fmt.Errorf("dump ID %q: %w", s, err)
	}
	r, err := dump.ReadDump(dir, id)
	if err != nil {
		return nil, fmt.Errorf("read dump %s: %w", id, err)
	}

	res := &dumpContent{
		id:      id,
		states:  make(map[string]dump.State),
		storage: make(map[string]map[string][]byte),
	}
	r.IterateStates(func(name string, st dump.State) {
		res.states[name] = st
		res.storage[name] = make(map[string][]byte)
	})
	r.IterateStorages(func(name string, key, value []byte) {
		if m, ok := res.storage[name]; ok {
			m[string(key)] = value
		}
	})
	return res, nil
}

func diffDumps(c *cli.Context) error {
	if err := checkArgs(c, 2); err != nil {
		return err
	}
	dir := c.String(dirFlag.Name)

	a, err := readDumpContent(dir, c.Args().Get(0))
	if err != nil {
		return err
	}
	b, err := readDumpContent(dir, c.Args().Get(1))
	if err != nil {
		return err
	}

	w := c.App.Writer
	var errs []string

	for name, stA := range a.states {
		stB, ok := b.states[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("ledger %q is missing in %s", name, b.id))
			continue
		}
		if stA != stB {
			errs = append(errs, fmt.Sprintf("ledger %q states mismatch", name))
			dumpContentDiff(w, "state", name, a.id, b.id, stA, stB)
		}

		var itemsDiff int
		keys := make([]string, 0, len(a.storage[name]))
		for k := range a.storage[name] {
			keys = append(keys, k)
		}
		for k := range b.storage[name] {
			if _, ok := a.storage[name][k]; !ok {
				keys = append(keys, k)
			}
		}
		slices.Sort(keys)

		for _, k := range keys {
			va, okA := a.storage[name][k]
			vb, okB := b.storage[name][k]
			if okA != okB || !bytes.Equal(va, vb) {
				itemsDiff++
				dumpContentDiff(w, "storage item", fmt.Sprintf("%s %x", name, k), a.id, b.id, va, vb)
			}
		}
		fmt.Fprintf(w, "ledger %q: %d storage items checked\n", name, len(keys))
		if itemsDiff != 0 {
			errs = append(errs, fmt.Sprintf("ledger %q: %d storage items mismatch", name, itemsDiff))
		}
	}
	for name := range b.states {
		if _, ok := a.states[name]; !ok {
			errs = append(errs, fmt.Sprintf("ledger %q is missing in %s", name, a.id))
		}
	}

	if len(errs) != 0 {
		slices.Sort(errs)
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func dumpContentDiff(w io.Writer, itemName string, key string, a, b dump.ID, itemA any, itemB any) {
	fmt.Fprintf(w, "%s %s:\n", itemName, key)
	da := spew.Sdump(itemA)
	db := spew.Sdump(itemB)
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(da),
		B:        difflib.SplitLines(db),
		FromFile: a.String(),
		ToFile:   b.String(),
		Context:  1,
	})
	fmt.Fprintln(w, diff)
}

var auditCommand = cli.Command{
	Name:  "audit",
	Usage: "Check that holders' balances sum up to the total supply",
	Description: `Audits the configured ledger or, if --id is given, the ledger restored
   from the dump.`,
	Flags: []cli.Flag{
		dirFlag,
		cli.StringFlag{
			Name:  "id",
			Usage: "ID of the dump to audit",
		},
	},
	Action: audit,
}

func audit(c *cli.Context) error {
	e, err := openAuditedLedger(c)
	if err != nil {
		return err
	}
	defer e.close()

	var (
		w       = c.App.Writer
		sum     = new(big.Int)
		holders int
	)
	err = e.ledger.Holders(func(_ util.Uint160, balance *big.Int) bool {
		holders++
		sum.Add(sum, balance)
		return true
	})
	if err != nil {
		return fmt.Errorf("iterate holders: %w", err)
	}

	supply, err := e.ledger.TotalSupply()
	if err != nil {
		return err
	}

	height, err := e.ledger.Height()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%d holders at %d height, balances sum: %s\n", holders, height, fixedn.ToString(sum, e.decimals()))
	fmt.Fprintf(w, "total supply: %s\n", fixedn.ToString(supply, e.decimals()))

	if sum.Cmp(supply) != 0 {
		return fmt.Errorf("balances sum differs from total supply by %s",
			fixedn.ToString(new(big.Int).Sub(sum, supply), e.decimals()))
	}
	return nil
}

// openAuditedLedger opens either the configured ledger or the one restored
// from the dump into memory.
func openAuditedLedger(c *cli.Context) (*env, error) {
	s := c.String("id")
	if s == "" {
		return openLedger(c)
	}

	id, err := dump.ParseID(s)
	if err != nil {
		return nil, fmt.Errorf("dump ID %q: %w", s, err)
	}
	r, err := dump.ReadDump(c.String(dirFlag.Name), id)
	if err != nil {
		return nil, fmt.Errorf("read dump %s: %w", id, err)
	}

	e, err := newEnv(c)
	if err != nil {
		return nil, err
	}
	// The configured store is not needed, the dump is restored into memory.
	if err := e.store.Close(); err != nil {
		return nil, err
	}
	e.store = storage.NewMemoryStore()

	st, err := r.Restore(dumpedLedgerName, e.store)
	if err != nil {
		e.close()
		return nil, err
	}

	e.ledger, err = ledger.New(e.store, ledger.Prm{Logger: e.log, Scheme: e.scheme})
	if err != nil {
		e.close()
		return nil, fmt.Errorf("open restored ledger: %w", err)
	}
	e.cfg.Ledger.Decimals = st.Decimals
	return e, nil
}
