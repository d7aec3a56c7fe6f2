// Command wu compiles wu source files to Lua.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"zombiezen.com/go/log"

	"github.com/wu-lang/wu/internal/driver"
)

type globalConfig struct {
	jsonOutput bool
}

func main() {
	g := new(globalConfig)
	opts := new(buildOptions)

	rootCommand := &cobra.Command{
		Use:                   "wu [options] <file-or-dir>",
		Short:                 "compile a file or a directory tree of .wu sources to Lua",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ExactArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	rootCommand.RunE = func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd.Context(), g, args[0], opts)
	}
	rootCommand.Flags().BoolVar(&opts.bytecode, "bytecode", false, "also write a precompiled .luac sibling")

	showDebug := rootCommand.PersistentFlags().Bool("debug", false, "show debugging output")
	rootCommand.PersistentFlags().BoolVar(&g.jsonOutput, "json", false, "render diagnostics as JSON")
	rootCommand.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		initLogging(*showDebug)
		return nil
	}

	rootCommand.AddCommand(
		newCleanCommand(),
		newNewCommand(),
		newGetCommand(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCommand.ExecuteContext(ctx)
	cancel()
	if err != nil {
		initLogging(*showDebug)
		log.Errorf(context.Background(), "%v", err)
		os.Exit(1)
	}
}

type buildOptions struct {
	bytecode bool
}

func runBuild(ctx context.Context, g *globalConfig, root string, opts *buildOptions) error {
	results, err := driver.Run(ctx, root, driver.Options{Bytecode: opts.bytecode})
	if err != nil {
		return err
	}
	return renderResults(results, g.jsonOutput)
}

func newCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:                   "clean [path]",
		Short:                 "delete every .lua sibling of a .wu file",
		DisableFlagsInUseLine: true,
		Args:                  cobra.MaximumNArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			return driver.Clean(cmd.Context(), path)
		},
	}
}

var initLogOnce sync.Once

func initLogging(showDebug bool) {
	initLogOnce.Do(func() {
		minLogLevel := log.Info
		if showDebug {
			minLogLevel = log.Debug
		}
		log.SetDefault(&log.LevelFilter{
			Min:    minLogLevel,
			Output: log.New(os.Stderr, "wu: ", log.StdFlags, nil),
		})
	})
}
