package tree

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// shellCmd is the practical entry point for exercising more than one
// operation against the same tree: it reads whitespace-separated commands
// from stdin, one per line, and dispatches them against the tree opened by
// setupTree. Supported verbs: put, get, del, scan, list, structure, stats,
// help, exit.
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive REPL over an in-process oradix tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := bufio.NewScanner(os.Stdin)
		fmt.Println("oradix tree shell. Type 'help' for commands, 'exit' to quit.")
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				return nil
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			fields := strings.Fields(line)
			verb := fields[0]
			rest := fields[1:]

			if verb == "exit" || verb == "quit" {
				return nil
			}
			if err := dispatch(verb, rest); err != nil {
				fmt.Printf("error: %v\n", err)
			}
		}
	},
}

func dispatch(verb string, args []string) error {
	switch verb {
	case "help":
		fmt.Println("put k v | get k | del k | scan lo hi | list | structure | stats | exit")
		return nil
	case "put":
		if len(args) != 2 {
			return fmt.Errorf("usage: put key value")
		}
		return putCmd.RunE(putCmd, args)
	case "get":
		if len(args) != 1 {
			return fmt.Errorf("usage: get key")
		}
		return getCmd.RunE(getCmd, args)
	case "del":
		if len(args) != 1 {
			return fmt.Errorf("usage: del key")
		}
		return delCmd.RunE(delCmd, args)
	case "scan":
		if len(args) != 2 {
			return fmt.Errorf("usage: scan beginKey endKey")
		}
		return scanCmd.RunE(scanCmd, args)
	case "list":
		return listCmd.RunE(listCmd, nil)
	case "structure":
		return structureCmd.RunE(structureCmd, nil)
	case "stats":
		return statsCmd.RunE(statsCmd, nil)
	default:
		return fmt.Errorf("unknown command %q (try 'help')", verb)
	}
}
