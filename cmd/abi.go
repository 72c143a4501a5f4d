package cmd

import (
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/cofoundit/cofoundit-contracts/contract"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

func init() {
	abiCmd := &cobra.Command{
		Use:   "abi <contract>",
		Short: "List the functions and events of a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadArtifact(args[0])
			if err != nil {
				return err
			}
			renderABI(a)
			return nil
		},
	}

	networksCmd := &cobra.Command{
		Use:   "networks <contract>",
		Short: "List the deployment records of a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadArtifact(args[0])
			if err != nil {
				return err
			}
			renderNetworks(a)
			return nil
		},
	}

	rootCmd.AddCommand(abiCmd, networksCmd)
}

func renderABI(a *contract.Artifact) {
	t := newTable()
	t.SetTitle(a.ContractName)
	t.AppendHeader(table.Row{"Kind", "Signature", "Mutability", "Selector / Topic"})

	methods := lo.Values(a.ABI.Methods)
	sort.Slice(methods, func(i, j int) bool { return methods[i].Sig < methods[j].Sig })
	for _, m := range methods {
		mutability := m.StateMutability
		if mutability == "" {
			mutability = lo.Ternary(m.IsConstant(), "view", "nonpayable")
		}
		t.AppendRow(table.Row{"function", m.Sig, mutability, hexutil.Encode(m.ID)})
	}

	events := lo.Values(a.ABI.Events)
	sort.Slice(events, func(i, j int) bool { return events[i].Sig < events[j].Sig })
	for _, ev := range events {
		t.AppendRow(table.Row{"event", ev.Sig, "", ev.ID.Hex()})
	}

	if a.ABI.HasFallback() {
		t.AppendRow(table.Row{"fallback", "", lo.Ternary(a.ABI.Fallback.IsPayable(), "payable", "nonpayable"), ""})
	}
	t.Render()
}

func renderNetworks(a *contract.Artifact) {
	t := newTable()
	t.SetTitle(a.ContractName)
	t.AppendHeader(table.Row{"Network", "Address", "Links", "Events", "Updated"})
	for _, id := range a.NetworkIDs() {
		d := a.Networks[id]
		links := lo.MapToSlice(d.Links, func(name, addr string) string { return name + "=" + addr })
		sort.Strings(links)
		updated := ""
		if d.UpdatedAt > 0 {
			updated = time.UnixMilli(d.UpdatedAt).UTC().Format(time.RFC3339)
		}
		t.AppendRow(table.Row{id, d.Address, strings.Join(links, " "), len(d.Events), updated})
	}
	t.Render()
}
