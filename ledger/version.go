package ledger

import (
	"encoding/binary"
	"fmt"
)

const (
	major = 1
	minor = 0
	patch = 0

	// Oldest storage schema this version can work with.
	prevMajor = 1
	prevMinor = 0
	prevPatch = 0

	// Version of the storage schema written by Init.
	Version = major*1_000_000 + minor*1_000 + patch

	PrevVersion = prevMajor*1_000_000 + prevMinor*1_000 + prevPatch
)

// CheckVersion checks that the store written with the given schema version
// can be opened.
func CheckVersion(from uint32) error {
	if from < PrevVersion {
		return fmt.Errorf("%w: %d, expected >= %d", ErrVersionMismatch, from, PrevVersion)
	}
	if from > Version {
		return fmt.Errorf("%w: %d is newer than %d", ErrVersionMismatch, from, Version)
	}
	return nil
}

func encodeVersion(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

func decodeVersion(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("%w: malformed version %x", ErrVersionMismatch, b)
	}
	return binary.LittleEndian.Uint32(b), nil
}
