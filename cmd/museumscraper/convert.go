package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"museumscraper/pkg/ledger"
)

// convertLedger reads the ledger at in and writes it to out in outFormat.
// It returns the number of records written.
func convertLedger(in, inFormat, out, outFormat string) (int, error) {
	records, err := ledger.Load(inFormat, in)
	if err != nil {
		return 0, err
	}
	if err := ledger.Export(records, outFormat, out); err != nil {
		return 0, err
	}
	return len(records), nil
}

// swapExt replaces the extension of path with ext
func swapExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// checkTarget refuses an output path that is the input or the live ledger
func checkTarget(out, in, ledgerPath string) error {
	target := cleanPath(out)
	if target == cleanPath(in) {
		return fmt.Errorf("output would overwrite its input %s", in)
	}
	if target == cleanPath(ledgerPath) {
		return fmt.Errorf("output would overwrite the ledger %s; pass --out", ledgerPath)
	}
	return nil
}

func cleanPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
