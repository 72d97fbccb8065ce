package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "audit":
			auditCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "layout":
			layoutCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	entries, err := os.ReadDir(filepath.Join(*dataDir, "ships"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if e.IsDir() {
			fmt.Println(e.Name())
		}
	}
}

// shipDirFlags registers the flags shared by subcommands that read one ship's data.
func shipDirFlags(fs *flag.FlagSet) func() string {
	dataDir := fs.String("data", "./data", "runtime data directory")
	shipID := fs.String("ship", "", "ship id, e.g. seed-1337")
	return func() string {
		if *shipID == "" {
			fmt.Fprintln(os.Stderr, "missing -ship")
			os.Exit(2)
		}
		return filepath.Join(*dataDir, "ships", *shipID)
	}
}

func printJSON(v any) {
	b, _ := json.Marshal(v)
	fmt.Println(string(b))
}
