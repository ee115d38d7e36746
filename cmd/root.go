package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oradix/oradix/cmd/tree"
)

const Version = "0.1.0"

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "oradix",
		Short: "ordered radix-tree index over byte-addressable global memory",
		Long: fmt.Sprintf(`oradix (v%s)

A library and CLI for an ordered key/value radix-tree index, with a
versioned-pointer cache-consistency protocol and ordered range scans.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of oradix",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("oradix v%s\n", Version)
		},
	}
)

func init() {
	RootCmd.AddCommand(tree.TreeCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
