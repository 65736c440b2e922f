package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/luca-patrignani/ledgerchain/ledger"
	"github.com/luca-patrignani/ledgerchain/snapshot"
)

func TestMain(m *testing.M) {
	pterm.DisableOutput()
	os.Exit(m.Run())
}

func run(args ...string) error {
	return newApp().Run(append([]string{"ledgerchain"}, args...))
}

func readSnapshot(t *testing.T, path string) snapshot.Snapshot {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	s, err := snapshot.Read(f, snapshot.FormatFromPath(path, snapshot.FormatJSON))
	require.NoError(t, err)
	return s
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr cli.ExitCoder
	require.True(t, errors.As(err, &exitErr), "expected exit error, got %v", err)
	return exitErr.ExitCode()
}

// TestDemoWritesSnapshot runs the demo command and checks the written
// snapshot restores into a valid, sealed blockchain.
func TestDemoWritesSnapshot(t *testing.T) {
	for _, name := range []string{"chain.json", "chain.s2"} {
		t.Run(name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), name)
			require.NoError(t, run("demo", "--out", out, "tx1", "tx2", `{"amount":5}`))

			s := readSnapshot(t, out)
			require.Len(t, s.Blocks, 4)
			assert.Equal(t, `"tx1"`, string(s.Blocks[1].Payload))
			assert.Equal(t, `{"amount":5}`, string(s.Blocks[3].Payload))

			bc, err := s.Restore()
			require.NoError(t, err)
			require.True(t, bc.Validate())

			require.NotNil(t, s.Seal)
			pub, err := ledger.ParsePublicKey(s.Seal.PublicKey)
			require.NoError(t, err)
			assert.NoError(t, bc.VerifySeal(pub, *s.Seal))
		})
	}
}

func TestDemoWithoutOutput(t *testing.T) {
	assert.NoError(t, run("demo", "tx1"))
}

func TestDemoWithKey(t *testing.T) {
	priv, pub := ledger.NewSealKey()
	privHex, err := ledger.MarshalPrivateKey(priv)
	require.NoError(t, err)
	pubHex, err := ledger.MarshalPublicKey(pub)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "chain.json")
	require.NoError(t, run("demo", "--key", privHex, "--out", out, "tx1"))
	assert.Equal(t, pubHex, readSnapshot(t, out).Seal.PublicKey)

	assert.NoError(t, run("verify", "--public-key", pubHex, out))

	_, otherPub := ledger.NewSealKey()
	otherHex, err := ledger.MarshalPublicKey(otherPub)
	require.NoError(t, err)
	assert.Equal(t, exitInvalid, exitCode(t, run("verify", "--public-key", otherHex, out)))

	assert.Error(t, run("demo", "--key", "zz", "--out", out, "tx1"))
}

// TestVerifyTampered edits a snapshot on disk and expects the verify command
// to fail with the invalid exit code.
func TestVerifyTampered(t *testing.T) {
	out := filepath.Join(t.TempDir(), "chain.json")
	require.NoError(t, run("demo", "--out", out, "tx1", "tx2"))
	require.NoError(t, run("verify", "-q", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	edited := strings.Replace(string(data), `"tx1"`, `"tx1-modified"`, 1)
	require.NoError(t, os.WriteFile(out, []byte(edited), 0o600))

	err = run("verify", out)
	assert.Equal(t, exitInvalid, exitCode(t, err))
	assert.Contains(t, err.Error(), "block 1 invalid")
}

func TestVerifyWithConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("logger:\n  level: debug\nsnapshot:\n  format: s2\nledger:\n  genesis_payload: start\n"), 0o600))

	out := filepath.Join(dir, "chain.snap")
	require.NoError(t, run("--config", cfg, "demo", "--out", out, "tx1"))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	s, err := snapshot.Read(f, snapshot.FormatS2)
	require.NoError(t, err)
	assert.Equal(t, `"start"`, string(s.Blocks[0].Payload))

	assert.NoError(t, run("-c", cfg, "verify", out))
}

func TestVerifyErrors(t *testing.T) {
	assert.Equal(t, 1, exitCode(t, run("verify")))
	assert.Error(t, run("verify", filepath.Join(t.TempDir(), "missing.json")))

	out := filepath.Join(t.TempDir(), "chain.json")
	require.NoError(t, run("demo", "--out", out, "tx1"))

	// strip the seal
	s := readSnapshot(t, out)
	s.Seal = nil
	f, err := os.Create(out)
	require.NoError(t, err)
	require.NoError(t, snapshot.Write(f, s, snapshot.FormatJSON))
	require.NoError(t, f.Close())

	_, pub := ledger.NewSealKey()
	pubHex, err := ledger.MarshalPublicKey(pub)
	require.NoError(t, err)
	assert.Equal(t, exitInvalid, exitCode(t, run("verify", "--public-key", pubHex, out)))
}

func TestKeygen(t *testing.T) {
	assert.NoError(t, run("keygen"))
}

func TestBadConfig(t *testing.T) {
	assert.Error(t, run("--config", filepath.Join(t.TempDir(), "missing.yaml"), "keygen"))
}

func TestParsePayload(t *testing.T) {
	assert.Equal(t, "tx1", parsePayload("tx1", false))
	assert.Equal(t, json.RawMessage(`42`), parsePayload("42", false))
	assert.Equal(t, json.RawMessage(`{"a":1}`), parsePayload(`{"a":1}`, false))
	assert.Equal(t, "42", parsePayload("42", true))
}
