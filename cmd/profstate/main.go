// profstate — in-memory profile state builder and critical-path analyzer
// for a distributed task-runtime profiler.
//
// Ingests a newline-delimited JSON record stream, builds the queryable
// in-memory profile, and exposes it as a JSON snapshot, a flamegraph-style
// SVG, a diff against a prior run, or a live MCP query server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/suranap/profstate/internal/alog"
	"github.com/suranap/profstate/internal/color"
	"github.com/suranap/profstate/internal/config"
	"github.com/suranap/profstate/internal/flamegraph"
	"github.com/suranap/profstate/internal/ids"
	"github.com/suranap/profstate/internal/mcpserver"
	"github.com/suranap/profstate/internal/recordsrc"
	"github.com/suranap/profstate/internal/snapshot"
	"github.com/suranap/profstate/internal/snapshotdiff"
	"github.com/suranap/profstate/internal/state"
)

var version = "0.1.0"

var (
	configPath    string
	verbose       bool
	filterInput   bool
	allLogs       bool
	callThreshold string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "profstate",
		Short:   "In-memory profile state builder and critical-path analyzer",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if verbose {
				cfg.Verbose = true
			}
			if filterInput {
				cfg.FilterInput = true
			}
			if allLogs {
				cfg.AllLogs = true
			}
			if callThreshold != "" {
				d, err := parseDuration(callThreshold)
				if err != nil {
					return fmt.Errorf("invalid --call-threshold: %w", err)
				}
				cfg.CallThreshold = d
			}
			config.Freeze(cfg)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&filterInput, "filter-input", false, "drop entries from nodes outside --visible-node")
	rootCmd.PersistentFlags().BoolVar(&allLogs, "all-logs", false, "set the all_logs config switch (stored only; does not change logging)")
	rootCmd.PersistentFlags().StringVar(&callThreshold, "call-threshold", "", "call duration threshold, e.g. 10us (stored only; calls are not filtered by it)")

	rootCmd.AddCommand(newIngestCmd(), newDiffCmd(), newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newIngestCmd() *cobra.Command {
	var (
		output         string
		flamegraphPath string
		flamegraphProc uint64
		visibleNodesRaw []string
	)

	cmd := &cobra.Command{
		Use:   "ingest <records.ndjson>",
		Short: "Build state from a record file and emit a JSON snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := buildState(args[0])
			if err != nil {
				return err
			}

			if len(visibleNodesRaw) > 0 {
				nodes := make(map[uint16]bool, len(visibleNodesRaw))
				for _, s := range visibleNodesRaw {
					n, err := strconv.ParseUint(s, 10, 16)
					if err != nil {
						return fmt.Errorf("invalid --visible-node %q: %w", s, err)
					}
					nodes[uint16(n)] = true
				}
				st.FilterOutput(nodes)
			}

			if flamegraphPath != "" {
				p, ok := st.Procs[ids.ProcID(flamegraphProc)]
				if !ok {
					return fmt.Errorf("no such processor: %d", flamegraphProc)
				}
				svg := flamegraph.GenerateSVG(p, fmt.Sprintf("proc %d", flamegraphProc), func(opID uint64) (color.RGB, bool) {
					return st.GetOpColor(ids.OpID(opID))
				})
				if err := os.WriteFile(flamegraphPath, []byte(svg), 0644); err != nil {
					return fmt.Errorf("write flamegraph: %w", err)
				}
			}

			return snapshot.WriteJSON(snapshot.Project(st), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "snapshot output path (- for stdout)")
	cmd.Flags().StringVar(&flamegraphPath, "flamegraph", "", "also render one processor's call hierarchy to this SVG path")
	cmd.Flags().Uint64Var(&flamegraphProc, "flamegraph-proc", 0, "processor ID to render, with --flamegraph")
	cmd.Flags().StringSliceVar(&visibleNodesRaw, "visible-node", nil, "node IDs to keep when --filter-input is set (repeatable)")
	return cmd
}

func newDiffCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "diff <baseline.json> <current.json>",
		Short: "Compare two ingested snapshots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseline, err := snapshotdiff.LoadProjection(args[0])
			if err != nil {
				return fmt.Errorf("load baseline: %w", err)
			}
			current, err := snapshotdiff.LoadProjection(args[1])
			if err != nil {
				return fmt.Errorf("load current: %w", err)
			}

			result := snapshotdiff.Compare(baseline, current)

			if output == "-" || output == "" {
				fmt.Print(snapshotdiff.FormatDiff(result))
				return nil
			}
			data, err := jsonMarshal(result)
			if err != nil {
				return err
			}
			return os.WriteFile(output, data, 0644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "diff output path (- for a human-readable summary)")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <records.ndjson>",
		Short: "Build state from a record file and serve it over MCP (stdio)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := buildState(args[0])
			if err != nil {
				return err
			}
			srv := mcpserver.NewServer(version, st)
			return srv.Start(context.Background())
		},
	}
	return cmd
}

func buildState(path string) (*state.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	log := alog.New(config.Get().Verbose)
	records, err := recordsrc.NewStream(f, log).Decode()
	if err != nil {
		return nil, err
	}

	st := state.New(log)
	st.ProcessRecords(records)
	return st, nil
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

func jsonMarshal(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
