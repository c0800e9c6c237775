package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/altuslabsxyz/localnet/internal/config"
	"github.com/altuslabsxyz/localnet/internal/topology"
)

var planNodes int

func NewPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the ports and peers of a testnet without starting it",
		Args:  cobra.NoArgs,
		RunE:  runPlan,
	}

	cmd.Flags().IntVarP(&planNodes, "nodes", "n", config.DefaultNodes,
		"Number of validator nodes (1-99)")

	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	nodes := planNodes
	if loadedFileConfig != nil {
		nodes, _ = config.ApplyIntConfig(cmd, "nodes", planNodes, loadedFileConfig.Nodes)
	}

	plans, err := topology.Plan(nodes)
	if err != nil {
		return handleCommandError(cmd, err)
	}
	writePlan(cmd.OutOrStdout(), plans)
	return nil
}

func writePlan(w io.Writer, plans []topology.NodePlan) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tPROXY\tRPC\tP2P\tPEERS")
	for _, p := range plans {
		peers := make([]string, 0, len(p.Peers))
		for _, i := range p.Peers {
			peers = append(peers, topology.NodeName(i))
		}
		peerList := strings.Join(peers, ",")
		if peerList == "" {
			peerList = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Name,
			strconv.Itoa(p.Ports.Proxy), strconv.Itoa(p.Ports.RPC), strconv.Itoa(p.Ports.P2P), peerList)
	}
	tw.Flush()
}
