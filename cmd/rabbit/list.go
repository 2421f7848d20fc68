package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/nhdewitt/rabbit/internal/collector"
)

// Lister is the part of the platform facts provider the list subcommand
// reads from.
type Lister interface {
	Interfaces(ctx context.Context) ([]collector.InterfaceStat, error)
	Disks(ctx context.Context) ([]collector.DiskStat, error)
	Components(ctx context.Context) ([]collector.ComponentStat, error)
	Processes(ctx context.Context) ([]collector.ProcessInfo, error)
	UPSNames(ctx context.Context) ([]string, error)
	Batteries(ctx context.Context) ([]collector.BatteryStat, error)
}

var listTargets = []string{"interfaces", "disks", "components", "processes", "ups", "batteries"}

// runList prints the names accepted by the matching filter flag and exits.
// Output is an aligned table on a terminal and tab-separated otherwise.
func runList(ctx context.Context, out io.Writer, l Lister, args []string) error {
	if len(args) != 1 || !slices.Contains(listTargets, args[0]) {
		return fmt.Errorf("usage: rabbit list {%s}", strings.Join(listTargets, "|"))
	}

	header, rows, err := listRows(ctx, l, args[0])
	if err != nil {
		return fmt.Errorf("listing %s: %w", args[0], err)
	}

	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		writeRows(tw, header, rows)
		return tw.Flush()
	}
	writeRows(out, header, rows)
	return nil
}

func writeRows(w io.Writer, header []string, rows [][]string) {
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(w, strings.Join(r, "\t"))
	}
}

func listRows(ctx context.Context, l Lister, target string) ([]string, [][]string, error) {
	var rows [][]string

	switch target {
	case "interfaces":
		ifs, err := l.Interfaces(ctx)
		if err != nil {
			return nil, nil, err
		}
		for _, i := range ifs {
			rows = append(rows, []string{i.Name})
		}
		sortRows(rows)
		return []string{"INTERFACE"}, rows, nil

	case "disks":
		disks, err := l.Disks(ctx)
		if err != nil {
			return nil, nil, err
		}
		for _, d := range disks {
			rows = append(rows, []string{d.Name, d.MountPoint})
		}
		sortRows(rows)
		return []string{"DEVICE", "MOUNT"}, rows, nil

	case "components":
		comps, err := l.Components(ctx)
		if err != nil {
			return nil, nil, err
		}
		for _, c := range comps {
			rows = append(rows, []string{c.Label})
		}
		sortRows(rows)
		return []string{"COMPONENT"}, rows, nil

	case "processes":
		procs, err := l.Processes(ctx)
		if err != nil {
			return nil, nil, err
		}
		slices.SortFunc(procs, func(a, b collector.ProcessInfo) int { return cmp.Compare(a.PID, b.PID) })
		for _, p := range procs {
			rows = append(rows, []string{strconv.FormatUint(uint64(p.PID), 10), p.Name})
		}
		return []string{"PID", "NAME"}, rows, nil

	case "ups":
		names, err := l.UPSNames(ctx)
		if err != nil {
			return nil, nil, err
		}
		for _, n := range names {
			rows = append(rows, []string{n})
		}
		sortRows(rows)
		return []string{"UPS"}, rows, nil

	case "batteries":
		bats, err := l.Batteries(ctx)
		if err != nil {
			return nil, nil, err
		}
		for _, b := range bats {
			rows = append(rows, []string{b.Name, b.Vendor, b.Model})
		}
		sortRows(rows)
		return []string{"BATTERY", "VENDOR", "MODEL"}, rows, nil
	}

	return nil, nil, fmt.Errorf("unknown target %q", target)
}

func sortRows(rows [][]string) {
	slices.SortFunc(rows, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
}
