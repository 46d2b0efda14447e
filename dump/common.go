package dump

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/util"
)

// ID is a unique identifier of the dump prepared according to the model
// described in the current package.
type ID struct {
	// Label of the dump source (e.g. testnet, mainnet).
	Label string
	// Ledger height at which the state was pulled.
	Height uint64
}

// String returns hyphen-separated ID fields.
func (x ID) String() string {
	return x.Label + sep + strconv.FormatUint(x.Height, 10)
}

// ParseID decodes ID from its String form.
func ParseID(s string) (ID, error) {
	var id ID
	if err := id.decodeString(s); err != nil {
		return ID{}, err
	}
	return id, nil
}

// decodes ID fields from the hyphen-separated string.
func (x *ID) decodeString(s string) error {
	ss := strings.Split(s, sep)
	if len(ss) < 2 {
		return fmt.Errorf("expected '%s'-separated string with at least 2 items", sep)
	}

	n, err := strconv.ParseUint(ss[1], 10, 64)
	if err != nil {
		return fmt.Errorf("decode ledger height from '%s': %w", ss[1], err)
	}

	x.Label = ss[0]
	x.Height = n

	return nil
}

// State is the information about the dumped ledger.
type State struct {
	Hash     util.Uint160 `json:"hash"`
	Name     string       `json:"tokenName"`
	Symbol   string       `json:"symbol"`
	Decimals int          `json:"decimals"`
	Magic    uint32       `json:"magic"`
	Height   uint64       `json:"height"`
}

// global encoding of binary values.
var _encoding = base64.StdEncoding

// dumpLedgerState is a JSON-encoded information about the dumped ledger.
type dumpLedgerState struct {
	Name  string `json:"name"`
	State State  `json:"state"`
}

// dumpStreams groups data streams for ledgers' states and storages.
type dumpStreams struct {
	ledgers, storageItems io.ReadWriteCloser
}

// close closes all streams.
func (x *dumpStreams) close() {
	_ = x.storageItems.Close()
	_ = x.ledgers.Close()
}

const (
	// word separator used in dump file naming
	sep = "-"
	// suffix of file with ledgers' states
	statesFileSuffix = "ledgers.json"
	// suffix of file with storage items
	storageFileSuffix = "storage.csv"
)

// initDumpStreams opens data streams for the dump files located in the
// specified directory. If read flag is set, streams are read-only. Otherwise,
// files must not exist, and streams are write only.
func initDumpStreams(d *dumpStreams, dir string, id ID, read bool) error {
	var err error

	pathStorage := filepath.Join(dir, strings.Join([]string{id.String(), storageFileSuffix}, sep))
	if !read {
		if err = checkFileNotExists(pathStorage); err != nil {
			return err
		}
	}

	pathStates := filepath.Join(dir, strings.Join([]string{id.String(), statesFileSuffix}, sep))
	if !read {
		if err = checkFileNotExists(pathStates); err != nil {
			return err
		}
	}

	var flag int
	var perm os.FileMode

	if read {
		flag = os.O_RDONLY
	} else {
		flag = os.O_CREATE | os.O_WRONLY
		perm = 0600
	}

	d.storageItems, err = os.OpenFile(pathStorage, flag, perm)
	if err != nil {
		return fmt.Errorf("open file with storage items: %w", err)
	}

	d.ledgers, err = os.OpenFile(pathStates, flag, perm)
	if err != nil {
		_ = d.storageItems.Close()
		return fmt.Errorf("open file with ledger states: %w", err)
	}

	return nil
}

// checkFileNotExists checks that there is no file at the specified path.
func checkFileNotExists(p string) error {
	_, err := os.Stat(p)
	if !os.IsNotExist(err) {
		if err == nil {
			err = os.ErrExist
		}
		return fmt.Errorf("file '%s' absence check failed: %w", p, err)
	}
	return nil
}
