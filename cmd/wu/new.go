package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const initTemplate = `import src

`

const srcInitTemplate = `main: fun() {
  print("hello, wu")
}

`

const manifestTemplate = `[dependencies]
`

func newNewCommand() *cobra.Command {
	return &cobra.Command{
		Use:                   "new [name]",
		Short:                 "scaffold a new wu project",
		DisableFlagsInUseLine: true,
		Args:                  cobra.MaximumNArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "wu-project"
			if len(args) == 1 {
				name = args[0]
			}
			return scaffold(name)
		},
	}
}

func scaffold(name string) error {
	srcDir := filepath.Join(name, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return fmt.Errorf("wu new: %w", err)
	}
	files := map[string]string{
		filepath.Join(name, "init.wu"):   initTemplate,
		filepath.Join(srcDir, "init.wu"): srcInitTemplate,
		filepath.Join(name, "wu.toml"):   manifestTemplate,
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("wu new: %w", err)
		}
	}
	return nil
}
