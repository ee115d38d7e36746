// Command oradix is the CLI entry point; it only wires cmd.Execute().
package main

import "github.com/oradix/oradix/cmd"

func main() {
	cmd.Execute()
}
