// Package ledger implements an append-only, tamper-evident blockchain ledger.
//
// # Core Components
//
// Blockchain: An ordered log of blocks owned by a single writer. Every block
// is bound to its predecessor through the predecessor's hash, so editing any
// historical block breaks the chain.
//
// Block: A single record holding its position, creation time, canonical JSON
// payload, the previous block hash and its own SHA-256 hash.
//
// Seal: A Schnorr signature over the length and tail hash of a chain, used to
// authenticate an exported view.
//
// # Hashing
//
// The hash of a block is the hex encoded SHA-256 digest of
//
//	position || timestamp || canonical(payload) || prevHash
//
// where position is written in decimal, timestamp is the UTC ISO-8601 form
// with nanosecond precision and canonical(payload) is compact JSON with object
// keys sorted at every level. The genesis block uses "0" as previous hash.
//
// # Usage
//
// Create a blockchain with NewBlockchain, append payloads with Append and
// call Verify (or Validate) at any time to check that the chain is intact.
// Export produces a detached copy of the chain for printing or transmission
// and Restore rebuilds a chain from such a copy so that it can be verified.
package ledger
