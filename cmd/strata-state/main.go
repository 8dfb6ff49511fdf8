// State inspection tool for the Strata ledger.
// Lists a program's mappings and dumps the entries of a chosen mapping.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/strata-lang/strata/ledger"
	"github.com/strata-lang/strata/manifest"
)

func main() {
	dir := flag.String("dir", ".", "Project directory (searched upward for strata.toml)")
	program := flag.String("program", "", "Program ID (defaults to the manifest's)")
	mapping := flag.String("mapping", "", "Mapping to dump (omit to list mappings)")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	m, err := manifest.FindAndLoad(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	if m == nil {
		fmt.Fprintf(os.Stderr, "No strata.toml found from %s\n", *dir)
		os.Exit(1)
	}

	id := *program
	if id == "" {
		id = m.Program.ID
	}
	if id == "" {
		fmt.Fprintln(os.Stderr, "No program ID given and none in manifest")
		os.Exit(1)
	}

	store, err := ledger.Open(m.LedgerPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *mapping == "" {
		names, err := store.Mappings(id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing mappings: %v\n", err)
			os.Exit(1)
		}
		if len(names) == 0 {
			fmt.Printf("%s: no stored mappings\n", id)
			return
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	entries, err := store.Entries(id, *mapping)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading mapping %s: %v\n", *mapping, err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Printf("%s\t%s\n", hex.EncodeToString(e.KeyBytes), e.Value.String())
	}
	fmt.Printf("%d entries\n", len(entries))
}
