// Command linter runs the recordcheck analyzer, which reports calls to a
// Recorder's Record method whose error result is thrown away.
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/idudko/storefront-latency/cmd/linter/analyzer"
)

func main() {
	singlechecker.Main(analyzer.Analyzer)
}
