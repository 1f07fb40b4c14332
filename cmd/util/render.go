package util

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/buger/goterm"

	"github.com/sidkik/sitesync/pkg/sync"
)

// absentValue is shown in place of a value that doesn't exist on one side.
const absentValue = "<unset>"

// SyncedString describes when a record was last synced.
func SyncedString(record sync.Record) string {
	if !record.Tracked {
		return goterm.Color("not tracked", goterm.YELLOW)
	}

	if t, ok := record.SyncedAt(); ok {
		return t.Local().Format("2006-01-02 15:04:05")
	}

	// Records written by the browser extension use a locale-specific date.
	if record.Date != "" {
		return record.Date
	}
	return "unknown"
}

// InSyncString colors whether an entry is in sync.
func InSyncString(entry sync.StatusEntry) string {
	if entry.InSync {
		return goterm.Color("yes", goterm.GREEN)
	}
	return goterm.Color("no", goterm.RED)
}

func valueString(v *string) string {
	if v == nil {
		return absentValue
	}
	return fmt.Sprintf("%q", *v)
}

// PrintOverview prints the origin and last sync date of a site.
func PrintOverview(out io.Writer, origin string, record sync.Record) {
	fmt.Fprintf(out, "Site Origin: %s\n", goterm.Bold(origin))
	fmt.Fprintf(out, "Last Synced: %s\n", SyncedString(record))
}

// PrintStatus prints a table comparing every key of a site. Values are only
// shown when `verbose` is true, since they may contain secrets.
func PrintStatus(out io.Writer, entries []sync.StatusEntry, verbose bool) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No keys in local storage or the remote record.")
		return
	}

	table := goterm.NewTable(0, 10, 2, ' ', 0)
	header := []string{"KEY", "IN SYNC"}
	if verbose {
		header = append(header, "LOCAL", "REMOTE")
	}
	fmt.Fprintln(table, strings.Join(header, "\t"))

	for _, entry := range entries {
		row := []string{entry.Key, InSyncString(entry)}
		if verbose {
			row = append(row, valueString(entry.LocalValue), valueString(entry.RemoteValue))
		}
		fmt.Fprintln(table, strings.Join(row, "\t"))
	}
	fmt.Fprint(out, table.String())
}

// PrintSites prints the tracked sites.
func PrintSites(out io.Writer, sites []sync.TrackedSite) {
	if len(sites) == 0 {
		fmt.Fprintln(out, "No tracked sites.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 10, 2, ' ', 0)
	fmt.Fprintln(w, "ORIGIN\tLAST SYNCED\tKEYS")
	for _, s := range sites {
		fmt.Fprintf(w, "%s\t%s\t%d\n", s.Origin, SyncedString(s.Record), len(s.Record.Data))
	}
	w.Flush()
}
