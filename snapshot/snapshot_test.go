package snapshot

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/ledgerchain/ledger"
)

func newChain(t *testing.T) *ledger.Blockchain {
	t.Helper()
	bc, err := ledger.NewBlockchain()
	require.NoError(t, err)
	require.NoError(t, bc.Append("tx1"))
	require.NoError(t, bc.Append(map[string]any{"from": "alice", "to": "bob", "amount": 3}))
	return bc
}

func TestWriteRead(t *testing.T) {
	priv, pub := ledger.NewSealKey()
	bc := newChain(t)
	seal, err := bc.Seal(priv)
	require.NoError(t, err)

	for _, format := range []Format{FormatJSON, FormatS2} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, New(bc, &seal), format))

			s, err := Read(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, Version, s.Version)
			require.NotNil(t, s.Seal)
			assert.Equal(t, seal.TailHash, s.Seal.TailHash)

			restored, err := s.Restore()
			require.NoError(t, err)
			assert.Equal(t, bc.Export(), restored.Export())
			require.NoError(t, restored.VerifySeal(pub, *s.Seal))
		})
	}
}

func TestWriteJSONIsReadable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, New(newChain(t), nil), FormatJSON))

	assert.Contains(t, buf.String(), `"prev_hash": "0"`)
	assert.NotContains(t, buf.String(), `"seal"`)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded["blocks"], 3)
}

func TestS2IsCompressedStream(t *testing.T) {
	var plain, compressed bytes.Buffer
	bc := newChain(t)
	require.NoError(t, Write(&plain, New(bc, nil), FormatJSON))
	require.NoError(t, Write(&compressed, New(bc, nil), FormatS2))

	assert.NotEqual(t, plain.Bytes(), compressed.Bytes())
	_, err := Read(bytes.NewReader(compressed.Bytes()), FormatJSON)
	assert.Error(t, err)
}

// TestReadTampered verifies that a snapshot edited on disk still decodes but
// fails verification.
func TestReadTampered(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, New(newChain(t), nil), FormatJSON))
	edited := strings.Replace(buf.String(), `"tx1"`, `"tx1-modified"`, 1)

	s, err := Read(strings.NewReader(edited), FormatJSON)
	require.NoError(t, err)
	restored, err := s.Restore()
	require.NoError(t, err)

	var verr *ledger.ValidationError
	require.ErrorAs(t, restored.Verify(), &verr)
	assert.Equal(t, 1, verr.Position)
}

func TestReadErrors(t *testing.T) {
	_, err := Read(strings.NewReader(`{"version":2,"blocks":[]}`), FormatJSON)
	assert.Error(t, err)

	_, err = Read(strings.NewReader(`not json`), FormatJSON)
	assert.Error(t, err)

	_, err = Read(strings.NewReader(`{}`), Format("xml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.ErrorIs(t, Write(&bytes.Buffer{}, Snapshot{}, Format("xml")), ErrUnsupportedFormat)
}

func TestFormats(t *testing.T) {
	f, err := ParseFormat("S2")
	require.NoError(t, err)
	assert.Equal(t, FormatS2, f)

	_, err = ParseFormat("yaml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.Equal(t, FormatS2, FormatFromPath("chain.s2", FormatJSON))
	assert.Equal(t, FormatJSON, FormatFromPath("chain.json", FormatS2))
	assert.Equal(t, FormatS2, FormatFromPath("chain.bin", FormatS2))
}
