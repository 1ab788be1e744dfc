package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "alf",
	Short: "AI-assisted Logic Fuzzer RTL patcher",
	Long: `alf prepares a synthesizable Verilog/SystemVerilog design for logic
fuzzing. It correlates a simulation dump (VCD) with the design's source
files, lets you tag modules and signals to fuzz, gates each tagged signal
with an externally driven control wire, routes that wire up to the design's
top instance, and emits a DPI shim (plus a companion C++ stub) that a host
program can use to randomize the tagged signals every clock edge.

Run with -v/--vcd and -f/--flist to patch a design; run with -u/--undo to
restore the sources a previous session modified.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if exitCode == 0 {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

// exitCode is set by the root command's RunE to carry the session's
// ReturnCode (§6: 0 SUCCESS, 1 FAILURE, 2 TERMINATE) through to the
// process exit status, since cobra itself only distinguishes "err or not".
var exitCode int
