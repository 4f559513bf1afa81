// Package ui prints API results for the command line
package ui

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/bravo68web/ghcrm/pkg/client"
	"github.com/bravo68web/ghcrm/pkg/tracker"
)

const dateLayout = "2006-01-02"

var repositoryHeader = []string{"ID", "Repository", "Stars", "Forks", "Issues", "Created", "URL"}

// RenderRepositories prints one page of tracked repositories followed by a
// "Showing from-to of total" footer
func RenderRepositories(w io.Writer, repos []client.Repository, p tracker.Pagination, search string) {
	switch tracker.ViewStateFor(len(repos), search, p.Total) {
	case tracker.ViewNoResults:
		fmt.Fprintf(w, "No repositories match %q\n", search)
		return
	case tracker.ViewEmpty:
		fmt.Fprintln(w, "No repositories tracked yet. Add one with: ghcrm repo add <owner/repo>")
		return
	}

	table := newTable(w)
	table.SetHeader(repositoryHeader)
	for _, r := range repos {
		table.Append(repositoryRow(r))
	}
	table.Render()

	from, to := p.Range()
	fmt.Fprintf(w, "Showing %d-%d of %d (page %d/%d)\n", from, to, p.Total, p.Page, p.TotalPages())
}

// RenderRepository prints a single repository as a one-row table
func RenderRepository(w io.Writer, r client.Repository) {
	table := newTable(w)
	table.SetHeader(repositoryHeader)
	table.Append(repositoryRow(r))
	table.Render()
}

// RenderSuggestions prints typeahead matches
func RenderSuggestions(w io.Writer, options []tracker.SearchOption) {
	if len(options) == 0 {
		fmt.Fprintln(w, "No matching repositories on GitHub")
		return
	}

	table := newTable(w)
	table.SetHeader([]string{"Repository", "Stars", "Description"})
	for _, o := range options {
		table.Append([]string{o.Label, strconv.Itoa(o.Stars), truncate(o.Description, 60)})
	}
	table.Render()
}

// RenderUser prints the signed-in account
func RenderUser(w io.Writer, u *client.User) {
	if u == nil {
		fmt.Fprintln(w, "Not signed in")
		return
	}

	table := newTable(w)
	table.SetHeader([]string{"ID", "Name", "Email", "Phone"})
	table.Append([]string{
		strconv.FormatUint(uint64(u.ID), 10),
		u.FirstName + " " + u.LastName,
		u.Email,
		u.Phone,
	})
	table.Render()
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func repositoryRow(r client.Repository) []string {
	return []string{
		strconv.FormatUint(uint64(r.ID), 10),
		r.FullName,
		strconv.Itoa(r.Stars),
		strconv.Itoa(r.Forks),
		strconv.Itoa(r.OpenIssues),
		r.Created().Format(dateLayout),
		r.URL,
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
