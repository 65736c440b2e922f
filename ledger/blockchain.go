package ledger

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Blockchain is an append-only list of hash-linked blocks. Appends are
// serialized; verification and reads may run concurrently with each other.
type Blockchain struct {
	mu     sync.RWMutex
	blocks []Block

	clock    func() time.Time
	logger   *slog.Logger
	observer Observer
}

// NewBlockchain creates a new blockchain with an initialized genesis block.
// The genesis block has position 0, previous hash "0" and the genesis payload.
func NewBlockchain(opts ...Option) (*Blockchain, error) {
	bc, o := newBlockchain(opts)
	genesis, err := bc.createGenesis(o.genesisPayload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create genesis block")
	}
	bc.blocks = append(bc.blocks, genesis)
	return bc, nil
}

func newBlockchain(opts []Option) (*Blockchain, options) {
	o := defaultOptions()
	for _, opt := range opts {
		o = opt(o)
	}
	bc := &Blockchain{
		blocks:   make([]Block, 0, 1),
		clock:    o.clock,
		logger:   o.logger,
		observer: o.observer,
	}
	return bc, o
}

func (bc *Blockchain) createGenesis(payload any) (Block, error) {
	return NewBlock(0, bc.clock(), payload, GenesisPrevHash)
}

// Append adds a new block carrying payload on top of the latest block. If the
// payload cannot be serialized the blockchain is left unchanged.
func (bc *Blockchain) Append(payload any) (err error) {
	started := time.Now()
	defer func() { bc.observer.ObserveAppend(err, started) }()

	bc.mu.Lock()
	defer bc.mu.Unlock()

	latest := bc.blocks[len(bc.blocks)-1]
	newBlock, err := NewBlock(latest.Position+1, bc.clock(), payload, latest.Hash)
	if err != nil {
		bc.logger.Debug("rejected payload", "position", latest.Position+1, "error", err)
		return err
	}

	bc.blocks = append(bc.blocks, newBlock)
	bc.logger.Debug("appended block", "position", newBlock.Position, "hash", newBlock.Hash)
	return nil
}

// Validate reports whether the blockchain is intact.
func (bc *Blockchain) Validate() bool {
	return bc.Verify() == nil
}

// Verify validates the integrity of the entire blockchain. It checks the
// genesis block and then every following block's hash, previous hash linkage
// and position continuity, stopping at the first failure. A tampered chain
// yields a *ValidationError.
func (bc *Blockchain) Verify() (err error) {
	started := time.Now()
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	defer func() {
		bc.observer.ObserveVerify(err, len(bc.blocks), started)
		var verr *ValidationError
		if errors.As(err, &verr) {
			bc.logger.Warn("blockchain verification failed", "position", verr.Position, "violation", string(verr.Violation))
		}
	}()

	if len(bc.blocks) == 0 {
		return ErrEmptyChain
	}
	if err := verifyGenesis(bc.blocks[0]); err != nil {
		return err
	}
	for i := 1; i < len(bc.blocks); i++ {
		if err := validateBlock(i, bc.blocks[i], bc.blocks[i-1]); err != nil {
			return err
		}
	}
	return nil
}

func verifyGenesis(genesis Block) error {
	if genesis.Position != 0 {
		return &ValidationError{Position: 0, Violation: ViolationGenesis, Expected: "position 0", Actual: "position " + strconv.Itoa(genesis.Position)}
	}
	if genesis.PrevHash != GenesisPrevHash {
		return &ValidationError{Position: 0, Violation: ViolationGenesis, Expected: GenesisPrevHash, Actual: genesis.PrevHash}
	}
	if expected := genesis.CalculateHash(); genesis.Hash != expected {
		return &ValidationError{Position: 0, Violation: ViolationHash, Expected: expected, Actual: genesis.Hash}
	}
	return nil
}

// validateBlock verifies that the block at index is valid relative to the
// previous block.
func validateBlock(index int, current, previous Block) error {
	// Recomputed hash catches edits to any field
	if expected := current.CalculateHash(); current.Hash != expected {
		return &ValidationError{Position: index, Violation: ViolationHash, Expected: expected, Actual: current.Hash}
	}

	// Link to the previous block catches relinking and reordering
	if current.PrevHash != previous.Hash {
		return &ValidationError{Position: index, Violation: ViolationPrevHash, Expected: previous.Hash, Actual: current.PrevHash}
	}

	if current.Position != previous.Position+1 {
		return &ValidationError{
			Position:  index,
			Violation: ViolationPosition,
			Expected:  strconv.Itoa(previous.Position + 1),
			Actual:    strconv.Itoa(current.Position),
		}
	}
	return nil
}

// Len returns the number of blocks, genesis included.
func (bc *Blockchain) Len() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return len(bc.blocks)
}

// Latest returns a copy of the most recently added block.
func (bc *Blockchain) Latest() Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.blocks[len(bc.blocks)-1].clone()
}

// Block returns a copy of the block at position.
func (bc *Blockchain) Block(position int) (Block, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	if position < 0 || position >= len(bc.blocks) {
		return Block{}, errors.Wrapf(ErrPositionOutOfRange, "position %d, length %d", position, len(bc.blocks))
	}
	return bc.blocks[position].clone(), nil
}
