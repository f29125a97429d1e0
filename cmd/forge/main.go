// Command forge drives the engine core from the command line: entity throughput benchmarks and
// job system stress runs.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "forge",
		Short:        "Benchmark the forge ECS runtime and job system",
		SilenceUsage: true,
	}
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newJobsCmd())
	return cmd
}

// startProfile starts a CPU or memory profile writing into the working directory. The returned
// function stops it. An empty mode is a no-op.
func startProfile(mode string) (func(), error) {
	switch mode {
	case "":
		return func() {}, nil
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet).Stop, nil
	case "mem":
		return profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet).Stop, nil
	default:
		return nil, fmt.Errorf("unknown profile mode %q (must be 'cpu' or 'mem')", mode)
	}
}

// printReport writes r as indented JSON, or as aligned key/value lines through text.
func printReport(w io.Writer, asJSON bool, r any, text func(io.Writer)) error {
	if !asJSON {
		text(w)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
