// Command reset generates Reset methods for structs annotated with a
// "generate:reset" comment, so pooled values can be returned to a sync.Pool
// without keeping stale data.
//
// Usage:
//
//	//go:generate go run ../../cmd/reset
//
// Each package directory given as an argument (default ".") receives a
// reset.gen.go file. Packages without annotated structs are left untouched.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

const outputFile = "reset.gen.go"

func main() {
	flag.Parse()
	dirs := flag.Args()
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	failed := false
	for _, dir := range dirs {
		code, err := Generate(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reset: %s: %v\n", dir, err)
			failed = true
			continue
		}
		if code == nil {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, outputFile), code, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "reset: %s: %v\n", dir, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}
