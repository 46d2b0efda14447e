package dump

import (
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/nspcc-dev/proofledger/ledger"
)

// Creator dumps states of ledgers. Output file format:
//
//	'<label>-<height>-ledgers.json': JSON array of ledgers' states
//	'<label>-<height>-storage.csv': CSV of ledgers' storages
//
// Storage CSV are 'name,key,value' where name stands for ledger name and
// binary key-value are base64-encoded.
//
// Use IterateDumps to access existing dumps.
type Creator struct {
	dumpStreams

	states []dumpLedgerState

	storageItemsCSV *csv.Writer
}

// NewCreator returns Creator which dumps ledgers into given directory. The
// dump is identified by specified ID. Resulting Creator should be closed when
// finished working with it.
//
// NewCreator fails if dump with provided ID already exists.
func NewCreator(dir string, id ID) (*Creator, error) {
	var res Creator

	err := initDumpStreams(&res.dumpStreams, dir, id, false)
	if err != nil {
		return nil, err
	}

	res.storageItemsCSV = csv.NewWriter(res.dumpStreams.storageItems)

	return &res, nil
}

// AddState adds given state of the named ledger to the resulting dump and
// returns StorageWriter for the ledger storage. After all needed ledgers are
// added, they should be flushed via Flush method.
func (x *Creator) AddState(name string, st State) *StorageWriter {
	x.states = append(x.states, dumpLedgerState{
		Name:  name,
		State: st,
	})

	return &StorageWriter{
		name: name,
		csv:  x.storageItemsCSV,
	}
}

// AddLedger adds state and the whole storage of the ledger to the resulting
// dump under the given name.
func (x *Creator) AddLedger(name string, l *ledger.Ledger) error {
	height, err := l.Height()
	if err != nil {
		return fmt.Errorf("get ledger height: %w", err)
	}

	tok := l.Token()
	w := x.AddState(name, State{
		Hash:     l.Hash(),
		Name:     tok.Name,
		Symbol:   tok.Symbol,
		Decimals: tok.Decimals,
		Magic:    tok.Magic,
		Height:   height,
	})

	l.Dump(func(key, value []byte) bool {
		err = w.Write(key, value)
		return err == nil
	})
	if err != nil {
		return fmt.Errorf("dump '%s' storage: %w", name, err)
	}

	return nil
}

// Flush flushes accumulated dump to the file system.
func (x *Creator) Flush() error {
	jEnc := json.NewEncoder(x.dumpStreams.ledgers)
	jEnc.SetIndent("", " ")

	err := jEnc.Encode(x.states)
	if err != nil {
		return fmt.Errorf("encode ledger states to JSON: %w", err)
	}

	x.storageItemsCSV.Flush()

	err = x.storageItemsCSV.Error()
	if err != nil {
		return fmt.Errorf("flush CSV data: %w", err)
	}

	return nil
}

// Close releases underlying resources of the Creator and makes it unusable.
func (x *Creator) Close() {
	x.close()
}

// StorageWriter writes data into the superior ledger's storage dump.
type StorageWriter struct {
	name string
	csv  *csv.Writer
}

// Write saves given binary key-value into the ledger dump as storage item.
func (x *StorageWriter) Write(key, value []byte) error {
	err := x.csv.Write([]string{
		x.name,
		_encoding.EncodeToString(key),
		_encoding.EncodeToString(value),
	})
	if err != nil {
		return fmt.Errorf("write storage item as CSV data: %w", err)
	}

	return nil
}
