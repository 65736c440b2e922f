package ledger

import (
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/sign/schnorr"
	"go.dedis.ch/kyber/v4/suites"
)

var suite suites.Suite = suites.MustFind("Ed25519")

// Seal is a Schnorr signature over the length and tail hash of a blockchain.
// A chain that extends the sealed one still matches the seal.
type Seal struct {
	Length    int    `json:"length"`
	TailHash  string `json:"tail_hash"`
	PublicKey string `json:"public_key"`
	Signature []byte `json:"signature"`
}

// NewSealKey generates a fresh key pair for sealing.
func NewSealKey() (kyber.Scalar, kyber.Point) {
	priv := suite.Scalar().Pick(suite.RandomStream())
	pub := suite.Point().Mul(priv, nil)
	return priv, pub
}

func sealMessage(length int, tailHash string) []byte {
	return []byte(fmt.Sprintf("ledgerchain-seal:%d:%s", length, tailHash))
}

// Seal verifies the blockchain and signs its current length and tail hash
// with priv. A tampered chain is never sealed: the *ValidationError from
// Verify is returned instead.
func (bc *Blockchain) Seal(priv kyber.Scalar) (Seal, error) {
	if err := bc.Verify(); err != nil {
		return Seal{}, err
	}

	bc.mu.RLock()
	length := len(bc.blocks)
	tail := bc.blocks[length-1].Hash
	bc.mu.RUnlock()

	sig, err := schnorr.Sign(suite, priv, sealMessage(length, tail))
	if err != nil {
		return Seal{}, errors.Wrap(err, "failed to sign seal")
	}
	pub, err := MarshalPublicKey(suite.Point().Mul(priv, nil))
	if err != nil {
		return Seal{}, err
	}
	return Seal{
		Length:    length,
		TailHash:  tail,
		PublicKey: pub,
		Signature: sig,
	}, nil
}

// VerifySeal checks that the blockchain is intact, that it contains the
// sealed prefix and that the seal was signed by pub.
func (bc *Blockchain) VerifySeal(pub kyber.Point, s Seal) error {
	if err := bc.Verify(); err != nil {
		return err
	}

	bc.mu.RLock()
	length := len(bc.blocks)
	var tail string
	if s.Length > 0 && s.Length <= length {
		tail = bc.blocks[s.Length-1].Hash
	}
	bc.mu.RUnlock()

	if s.Length <= 0 || s.Length > length {
		return errors.Wrapf(ErrSealMismatch, "sealed length %d, blockchain length %d", s.Length, length)
	}
	if tail != s.TailHash {
		return errors.Wrapf(ErrSealMismatch, "block %d hash %s, sealed %s", s.Length-1, tail, s.TailHash)
	}
	if err := schnorr.Verify(suite, pub, sealMessage(s.Length, s.TailHash), s.Signature); err != nil {
		return errors.Wrap(ErrSealSignature, err.Error())
	}
	return nil
}

// MarshalPublicKey encodes a seal public key as hex.
func MarshalPublicKey(pub kyber.Point) (string, error) {
	b, err := pub.MarshalBinary()
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal public key")
	}
	return hex.EncodeToString(b), nil
}

// ParsePublicKey decodes a hex public key produced by MarshalPublicKey.
func ParsePublicKey(s string) (kyber.Point, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "invalid public key encoding")
	}
	pub := suite.Point()
	if err := pub.UnmarshalBinary(b); err != nil {
		return nil, errors.Wrap(err, "invalid public key")
	}
	return pub, nil
}

// MarshalPrivateKey encodes a seal private key as hex.
func MarshalPrivateKey(priv kyber.Scalar) (string, error) {
	b, err := priv.MarshalBinary()
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal private key")
	}
	return hex.EncodeToString(b), nil
}

// ParsePrivateKey decodes a hex private key produced by MarshalPrivateKey.
func ParsePrivateKey(s string) (kyber.Scalar, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key encoding")
	}
	priv := suite.Scalar()
	if err := priv.UnmarshalBinary(b); err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}
	return priv, nil
}
