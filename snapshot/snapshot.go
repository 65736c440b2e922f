// Package snapshot encodes exported blockchains for printing, transmission or
// storage by other programs.
package snapshot

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/s2"
	"github.com/pkg/errors"

	"github.com/luca-patrignani/ledgerchain/ledger"
)

// Version is the snapshot layout written by this package.
const Version = 1

// Format selects the encoding of a snapshot.
type Format string

const (
	// FormatJSON is indented JSON.
	FormatJSON Format = "json"
	// FormatS2 is compact JSON compressed with the s2 stream format.
	FormatS2 Format = "s2"
)

var ErrUnsupportedFormat = errors.New("unsupported snapshot format")

// Snapshot is an exported blockchain with an optional seal.
type Snapshot struct {
	Version int             `json:"version"`
	Blocks  []ledger.Record `json:"blocks"`
	Seal    *ledger.Seal    `json:"seal,omitempty"`
}

// New exports bc into a snapshot.
func New(bc *ledger.Blockchain, seal *ledger.Seal) Snapshot {
	return Snapshot{
		Version: Version,
		Blocks:  bc.Export(),
		Seal:    seal,
	}
}

// Restore rebuilds the blockchain held by the snapshot.
func (s Snapshot) Restore(opts ...ledger.Option) (*ledger.Blockchain, error) {
	return ledger.Restore(s.Blocks, opts...)
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatJSON, FormatS2:
		return f, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedFormat, "%q", name)
	}
}

// FormatFromPath picks the format from a file extension, falling back to
// fallback for unknown extensions.
func FormatFromPath(path string, fallback Format) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".s2":
		return FormatS2
	case ".json":
		return FormatJSON
	default:
		return fallback
	}
}

// Write encodes s to w.
func Write(w io.Writer, s Snapshot, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(s), "failed to encode snapshot")
	case FormatS2:
		sw := s2.NewWriter(w)
		if err := json.NewEncoder(sw).Encode(s); err != nil {
			_ = sw.Close()
			return errors.Wrap(err, "failed to encode snapshot")
		}
		return errors.Wrap(sw.Close(), "failed to flush compressed snapshot")
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}
}

// Read decodes a snapshot from r.
func Read(r io.Reader, format Format) (Snapshot, error) {
	switch format {
	case FormatJSON:
	case FormatS2:
		r = s2.NewReader(r)
	default:
		return Snapshot{}, errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}

	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, errors.Wrap(err, "failed to decode snapshot")
	}
	if s.Version != Version {
		return Snapshot{}, errors.Errorf("unsupported snapshot version %d", s.Version)
	}
	return s, nil
}
