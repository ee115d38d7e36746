// Package tree wires a cobra command group around an in-process oradix
// tree. Since the facade's backing heap is a DRAM-only arena (persistence
// and process lifecycle are out of scope, per the core's own design), every
// invocation of this command group starts from an empty tree: the "shell"
// subcommand is the practical way to issue more than one operation against
// the same data, and the single-shot subcommands exist mainly as scripting
// building blocks and smoke-test aids.
package tree

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/oradix/oradix/cmd/util"
	"github.com/oradix/oradix/lib/common"
	"github.com/oradix/oradix/lib/heap"
	"github.com/oradix/oradix/lib/kvs"
	"github.com/oradix/oradix/lib/metrics"
)

var (
	logger = common.CreateLogger("tree")

	store *kvs.KVS

	// TreeCommands is the "tree" command group: put/get/del/scan/list/
	// structure/stats/shell against a fresh in-process tree.
	TreeCommands = &cobra.Command{
		Use:               "tree",
		Short:             "Operate on an in-process oradix tree",
		PersistentPreRunE: setupTree,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)
	util.SetupTreeFlags(TreeCommands)

	TreeCommands.AddCommand(putCmd)
	TreeCommands.AddCommand(getCmd)
	TreeCommands.AddCommand(delCmd)
	TreeCommands.AddCommand(scanCmd)
	TreeCommands.AddCommand(listCmd)
	TreeCommands.AddCommand(structureCmd)
	TreeCommands.AddCommand(statsCmd)
	TreeCommands.AddCommand(shellCmd)
}

// setupTree binds flags, opens a fresh arena-backed tree, and starts the
// background maintenance loop if configured.
func setupTree(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	level, err := common.ParseLevel(util.LogLevel())
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	h := heap.NewArenaHeap(util.ArenaCapacity())
	sink := metrics.New("cli")
	store, err = kvs.Open(h, 0, sink)
	if err != nil {
		return err
	}

	if secs := util.OfflineFreeInterval(); secs > 0 {
		go runMaintenanceLoop(store, time.Duration(secs)*time.Second)
	}
	return nil
}

func runMaintenanceLoop(s *kvs.KVS, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		s.Maintenance()
	}
}
