package main

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/luca-patrignani/ledgerchain/config"
	"github.com/luca-patrignani/ledgerchain/ledger"
	"github.com/luca-patrignani/ledgerchain/metrics"
	"github.com/luca-patrignani/ledgerchain/snapshot"
)

// exitInvalid is the exit code of a verification that found tampering.
const exitInvalid = 2

func main() {
	if err := newApp().Run(os.Args); err != nil {
		pterm.Error.Println(err.Error())
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newApp() *cli.App {
	rt := &runtime{}
	return &cli.App{
		Name:  "ledgerchain",
		Usage: "Build, export and verify tamper-evident blockchains",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
			},
		},
		Before: rt.setup,
		Commands: []*cli.Command{
			demoCommand(rt),
			verifyCommand(rt),
			keygenCommand(),
		},
		// exit codes are handled in main
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func (rt *runtime) setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	rt.cfg = cfg

	// Create a new slog handler with the default PTerm logger
	handler := pterm.NewSlogHandler(pterm.DefaultLogger.WithLevel(cfg.LogLevel()))
	rt.logger = slog.New(handler)
	rt.logger.Debug("loaded configuration", "level", cfg.Logger.Level, "format", cfg.Snapshot.Format)
	return nil
}

func (rt *runtime) ledgerOptions() []ledger.Option {
	return []ledger.Option{
		ledger.WithLogger(rt.logger),
		ledger.WithObserver(metrics.NewLedger(rt.cfg.Ledger.Name)),
	}
}

func demoCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "demo",
		Usage:     "Append the given payloads to a new blockchain and verify it",
		ArgsUsage: "[payload...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write a sealed snapshot to this file",
			},
			&cli.StringFlag{
				Name:  "key",
				Usage: "Hex private key used to seal the snapshot (random if empty)",
			},
			&cli.BoolFlag{
				Name:  "strings",
				Usage: "Store every payload as a string instead of parsing JSON",
			},
		},
		Action: func(c *cli.Context) error {
			opts := append(rt.ledgerOptions(), ledger.WithGenesisPayload(rt.cfg.Ledger.GenesisPayload))
			bc, err := ledger.NewBlockchain(opts...)
			if err != nil {
				return err
			}
			for _, arg := range c.Args().Slice() {
				if err := bc.Append(parsePayload(arg, c.Bool("strings"))); err != nil {
					return err
				}
			}

			if err := renderChain(bc.Export()); err != nil {
				return err
			}
			renderVerdict(bc.Verify())

			out := c.String("out")
			if out == "" {
				return nil
			}
			return rt.writeSealed(bc, out, c.String("key"))
		},
	}
}

func (rt *runtime) writeSealed(bc *ledger.Blockchain, out, key string) error {
	priv, _ := ledger.NewSealKey()
	if key != "" {
		var err error
		if priv, err = ledger.ParsePrivateKey(key); err != nil {
			return err
		}
	}
	seal, err := bc.Seal(priv)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	format := snapshot.FormatFromPath(out, rt.cfg.SnapshotFormat())
	if err := snapshot.Write(f, snapshot.New(bc, &seal), format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	rt.logger.Info("wrote snapshot", "file", out, "format", string(format), "blocks", seal.Length)
	renderSeal(seal)
	return nil
}

func verifyCommand(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Verify a snapshot file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "public-key",
				Usage: "Hex public key the snapshot seal must be signed with",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not print the blocks",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("verify expects exactly one file", 1)
			}
			path := c.Args().First()
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			s, err := snapshot.Read(f, snapshot.FormatFromPath(path, rt.cfg.SnapshotFormat()))
			if err != nil {
				return err
			}
			bc, err := s.Restore(rt.ledgerOptions()...)
			if err != nil {
				return err
			}
			if !c.Bool("quiet") {
				if err := renderChain(bc.Export()); err != nil {
					return err
				}
			}

			verr := bc.Verify()
			renderVerdict(verr)
			if verr != nil {
				return cli.Exit(verr.Error(), exitInvalid)
			}

			key := c.String("public-key")
			if key == "" {
				return nil
			}
			if s.Seal == nil {
				return cli.Exit("snapshot carries no seal", exitInvalid)
			}
			pub, err := ledger.ParsePublicKey(key)
			if err != nil {
				return err
			}
			if err := bc.VerifySeal(pub, *s.Seal); err != nil {
				return cli.Exit(err.Error(), exitInvalid)
			}
			pterm.Success.Printfln("Seal over %d blocks signed by %s", s.Seal.Length, key)
			return nil
		},
	}
}

func keygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate a key pair for sealing snapshots",
		Action: func(c *cli.Context) error {
			priv, pub := ledger.NewSealKey()
			privHex, err := ledger.MarshalPrivateKey(priv)
			if err != nil {
				return err
			}
			pubHex, err := ledger.MarshalPublicKey(pub)
			if err != nil {
				return err
			}
			pterm.Info.Printfln("private key: %s", privHex)
			pterm.Info.Printfln("public key:  %s", pubHex)
			return nil
		},
	}
}

// parsePayload keeps valid JSON arguments as JSON values and everything else
// as plain strings.
func parsePayload(arg string, asString bool) any {
	if !asString && json.Valid([]byte(arg)) {
		return json.RawMessage(arg)
	}
	return arg
}
