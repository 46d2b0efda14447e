package dump

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
)

// IterateDumps iterates over all ledgers collected by the Creator model in
// the specified directory, and passes ID and Reader of each dump into f.
func IterateDumps(dir string, f func(ID, *Reader)) error {
	var id ID
	var r Reader
	var streams dumpStreams

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, e error) error {
		if errors.Is(e, fs.ErrNotExist) {
			return nil
		}
		if e != nil {
			return e
		}

		if d.IsDir() {
			return nil
		}

		name := d.Name()

		if !strings.HasSuffix(name, statesFileSuffix) {
			return nil
		}

		err := id.decodeString(name)
		if err != nil {
			return fmt.Errorf("decode dump ID from file name '%s': %w", d.Name(), err)
		}

		err = initDumpStreams(&streams, dir, id, true)
		if err != nil {
			return fmt.Errorf("init dump streams ('%s'): %w", name, err)
		}

		err = r.fromDumpStreams(streams.ledgers, streams.storageItems)
		streams.close()
		if err != nil {
			return fmt.Errorf("init dump reader ('%s'): %w", name, err)
		}

		f(id, &r)

		return nil
	})
}

// ReadDump reads a single dump with the given ID from the directory.
func ReadDump(dir string, id ID) (*Reader, error) {
	var streams dumpStreams

	err := initDumpStreams(&streams, dir, id, true)
	if err != nil {
		return nil, err
	}
	defer streams.close()

	var r Reader
	err = r.fromDumpStreams(streams.ledgers, streams.storageItems)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

type kv struct{ k, v []byte }

// Reader reads ledgers collected in the superior dump.
type Reader struct {
	states   []dumpLedgerState
	mStorage map[string][]kv
}

func (x *Reader) fromDumpStreams(rStates, rStorageItems io.Reader) error {
	x.states = x.states[:0]
	err := json.NewDecoder(rStates).Decode(&x.states)
	if err != nil {
		return fmt.Errorf("decode ledger states from JSON: %w", err)
	}

	var rec []string
	var _kv kv

	_csv := csv.NewReader(rStorageItems)
	_csv.FieldsPerRecord = 3
	_csv.ReuseRecord = true

	if x.mStorage != nil {
		clear(x.mStorage)
	} else {
		x.mStorage = make(map[string][]kv)
	}

	for {
		rec, err = _csv.Read()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read next CSV record: %w", err)
		}

		// out-of-range safety guaranteed by csv settings
		_kv.k, err = _encoding.DecodeString(rec[1])
		if err != nil {
			return fmt.Errorf("decode storage item key: %w", err)
		}

		_kv.v, err = _encoding.DecodeString(rec[2])
		if err != nil {
			return fmt.Errorf("decode storage item value: %w", err)
		}

		x.mStorage[rec[0]] = append(x.mStorage[rec[0]], _kv)
	}
}

// IterateStates iterates over all ledgers from the superior dump and passes
// their states into f.
func (x *Reader) IterateStates(f func(name string, st State)) {
	for i := range x.states {
		f(x.states[i].Name, x.states[i].State)
	}
}

// State returns state of the named ledger.
func (x *Reader) State(name string) (State, bool) {
	for i := range x.states {
		if x.states[i].Name == name {
			return x.states[i].State, true
		}
	}
	return State{}, false
}

// IterateStorages iterates over all ledgers from the superior dump and passes
// their storage items into f.
func (x *Reader) IterateStorages(f func(name string, key, value []byte)) {
	for name, kvs := range x.mStorage {
		for i := range kvs {
			f(name, kvs[i].k, kvs[i].v)
		}
	}
}

// Restore writes storage of the named ledger into the store. The store is
// expected to be empty. Use ledger.New to open the restored ledger.
func (x *Reader) Restore(name string, store storage.Store) (State, error) {
	st, ok := x.State(name)
	if !ok {
		return State{}, fmt.Errorf("ledger '%s' is missing in the dump", name)
	}

	cachedStore := storage.NewMemCachedStore(store) // mem-cached store has sweeter interface
	for _, item := range x.mStorage[name] {
		cachedStore.Put(item.k, item.v)
	}

	_, err := cachedStore.PersistSync()
	if err != nil {
		return State{}, fmt.Errorf("persist storage items: %w", err)
	}

	return st, nil
}
