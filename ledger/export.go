package ledger

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Record is the exported, detached form of a block.
type Record struct {
	Position  int             `json:"position"`
	Timestamp string          `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	PrevHash  string          `json:"prev_hash"`
	Hash      string          `json:"hash"`
}

// Export returns a copy of every block in chain order. The records share no
// memory with the blockchain.
func (bc *Blockchain) Export() []Record {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	records := make([]Record, 0, len(bc.blocks))
	for _, b := range bc.blocks {
		c := b.clone()
		records = append(records, Record{
			Position:  c.Position,
			Timestamp: FormatTimestamp(c.Timestamp),
			Payload:   c.Payload,
			PrevHash:  c.PrevHash,
			Hash:      c.Hash,
		})
	}
	return records
}

// Restore rebuilds a blockchain from exported records. Stored hashes are kept
// as they are, so a tampered export restores fine and then fails Verify.
// Records that cannot be decoded at all are rejected.
func Restore(records []Record, opts ...Option) (*Blockchain, error) {
	if len(records) == 0 {
		return nil, ErrEmptyChain
	}
	bc, _ := newBlockchain(opts)

	for i, r := range records {
		ts, err := ParseTimestamp(r.Timestamp)
		if err != nil {
			return nil, errors.Wrapf(err, "record %d: invalid timestamp", i)
		}
		payload, err := Canonicalize(r.Payload)
		if err != nil {
			return nil, errors.Wrapf(err, "record %d", i)
		}
		bc.blocks = append(bc.blocks, Block{
			Position:  r.Position,
			Timestamp: ts,
			Payload:   payload,
			PrevHash:  r.PrevHash,
			Hash:      r.Hash,
		})
	}
	bc.logger.Debug("restored blockchain", "length", len(bc.blocks))
	return bc, nil
}
