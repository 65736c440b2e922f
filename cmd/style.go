package main

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"

	"github.com/luca-patrignani/ledgerchain/ledger"
)

const shortHashLen = 16

func shortHash(h string) string {
	if len(h) <= shortHashLen {
		return h
	}
	return h[:shortHashLen] + "…"
}

func renderChain(records []ledger.Record) error {
	data := pterm.TableData{{"#", "Timestamp", "Payload", "Prev hash", "Hash"}}
	for _, r := range records {
		data = append(data, []string{
			strconv.Itoa(r.Position),
			r.Timestamp,
			string(r.Payload),
			shortHash(r.PrevHash),
			shortHash(r.Hash),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
}

func renderVerdict(err error) {
	if err == nil {
		pterm.Success.Println("Blockchain is valid")
		return
	}
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		pterm.Error.Printfln("Blockchain is invalid at block %d: %s", verr.Position, verr.Violation)
		return
	}
	pterm.Error.Printfln("Blockchain is invalid: %v", err)
}

func renderSeal(seal ledger.Seal) {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	pbox.WithTitle(pterm.LightGreen("|SEAL|")).WithTitleTopCenter().Println(
		pterm.Sprintfln("Blocks: %d\nTail: %s\nPublic key: %s", seal.Length, shortHash(seal.TailHash), pterm.LightCyan(seal.PublicKey)),
	)
}
