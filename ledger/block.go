package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// GenesisPrevHash is the previous hash recorded by the genesis block.
	GenesisPrevHash = "0"
	// GenesisPayload is the payload of the genesis block unless overridden.
	GenesisPayload = "Genesis Block"
	// TimestampLayout is the ISO-8601 form used for hashing and export.
	TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Block is a single record of the blockchain.
type Block struct {
	Position  int             `json:"position"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	PrevHash  string          `json:"prev_hash"`
	Hash      string          `json:"hash"`
}

// NewBlock builds a block and computes its hash. The payload is stored in its
// canonical JSON form; a *SerializationError is returned if it has none.
func NewBlock(position int, timestamp time.Time, payload any, prevHash string) (Block, error) {
	canonical, err := Canonicalize(payload)
	if err != nil {
		return Block{}, err
	}
	b := Block{
		Position:  position,
		Timestamp: timestamp.UTC().Round(0),
		Payload:   canonical,
		PrevHash:  prevHash,
	}
	b.Hash = b.CalculateHash()
	return b, nil
}

// CalculateHash recomputes the SHA-256 hash of the block from its current
// fields. The stored Hash is not read nor modified.
func (b Block) CalculateHash() string {
	data := fmt.Sprintf("%d%s%s%s",
		b.Position,
		FormatTimestamp(b.Timestamp),
		string(b.Payload),
		b.PrevHash,
	)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// FormatTimestamp renders t in UTC with fixed nanosecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp is the inverse of FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func (b Block) clone() Block {
	c := b
	c.Payload = append(json.RawMessage(nil), b.Payload...)
	return c
}
