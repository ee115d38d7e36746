package tree

import (
	"encoding/binary"
	"fmt"

	"github.com/spf13/cobra"
)

func parseValue(s string) ([]byte, error) {
	if len(s) > 8 {
		return nil, fmt.Errorf("value %q is longer than 8 bytes", s)
	}
	var buf [8]byte
	copy(buf[:], s)
	return buf[:], nil
}

func valueAsUint64(v []byte) uint64 {
	return binary.LittleEndian.Uint64(v)
}

var putCmd = &cobra.Command{
	Use:   "put [key] [value]",
	Short: "Insert or overwrite the value for a key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := parseValue(args[1])
		if err != nil {
			return err
		}
		old, fErr := store.Put([]byte(args[0]), value)
		if fErr != nil {
			return fErr
		}
		fmt.Printf("put ok, previous=%s\n", old)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Read the value for a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, found, fErr := store.Get([]byte(args[0]))
		if fErr != nil {
			return fErr
		}
		if !found {
			fmt.Printf("key=%s not found\n", args[0])
			return nil
		}
		fmt.Printf("key=%s value=%d\n", args[0], valueAsUint64(value[:]))
		return nil
	},
}

var delCmd = &cobra.Command{
	Use:   "del [key]",
	Short: "Tombstone the value for a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, found, fErr := store.Destroy([]byte(args[0]))
		if fErr != nil {
			return fErr
		}
		fmt.Printf("key=%s destroyed=%v\n", args[0], found)
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan [beginKey] [endKey]",
	Short: "List keys in [beginKey, endKey)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, fErr := store.OpenScan([]byte(args[0]), true, []byte(args[1]), false)
		if fErr != nil {
			return fErr
		}
		defer store.CloseScan(handle)

		for {
			key, value, ok, fErr := store.ScanNext(handle)
			if fErr != nil {
				return fErr
			}
			if !ok {
				break
			}
			fmt.Printf("%s=%d\n", key, valueAsUint64(value[:]))
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every live key in the tree, in order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fErr := store.List(func(key []byte, value [8]byte) bool {
			fmt.Printf("%s=%d\n", key, valueAsUint64(value[:]))
			return true
		})
		if fErr != nil {
			return fErr
		}
		return nil
	},
}

var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Print per-level node/value/fanout counts and the tree's max depth",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := store.Structure()
		for depth, lvl := range s.Levels {
			fmt.Printf("depth=%d nodes=%d values=%d avgFanout=%.2f\n", depth, lvl.NodeCount, lvl.ValueCount, lvl.AvgFanout())
		}
		fmt.Printf("maxDepth=%d\n", s.MaxDepth)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the tree's metrics snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := store.ReportMetrics()
		fmt.Printf("puts=%d gets=%d deletes=%d scans=%d tombstones=%d\n", snap.Puts, snap.Gets, snap.Deletes, snap.Scans, snap.Tombstones)
		fmt.Printf("allocs=%d allocRetries=%d allocFails=%d frees=%d meanAllocSize=%.1f meanFanout=%.2f\n",
			snap.Allocs, snap.AllocRetries, snap.AllocFails, snap.Frees, snap.MeanAllocSize, snap.MeanFanout)
		return nil
	},
}
