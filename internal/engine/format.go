// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// FormatTable writes the result pages as human-readable tables to w.
func FormatTable(res *Result, w io.Writer) {
	if res.Papers != nil {
		formatPapers(res, w)
	}
	if res.Authors != nil {
		formatAuthors(res, w)
	}
	if res.Venues != nil {
		formatVenues(res, w)
	}
	if res.Concepts != nil {
		formatConcepts(res, w)
	}
	if res.Partial {
		fmt.Fprintln(w, "note: candidate fetch timed out; results cover the papers retrieved in time")
	}
}

func formatPapers(res *Result, w io.Writer) {
	page := res.Papers
	if len(page.Results) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}
	fmt.Fprintf(w, "%-4s  %-60s  %-4s  %-6s  %-6s  %-6s\n",
		"Rank", "Title", "Year", "Score", "Direct", "Concept")
	fmt.Fprintln(w, strings.Repeat("-", 96))
	for i, r := range page.Results {
		year := ""
		if r.Item.Year > 0 {
			year = fmt.Sprintf("%d", r.Item.Year)
		}
		title := r.Item.Title
		if title == "" {
			title = r.Item.ID
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-4s  %-6.3f  %-6.3f  %-6.3f\n",
			page.Offset+i+1, truncate(title, 60), year, r.Score, r.Item.DirectScore, r.Item.ConceptScore)
	}
	footer(w, "papers", page.Offset, len(page.Results), page.Total)
}

func formatAuthors(res *Result, w io.Writer) {
	page := res.Authors
	if len(page.Results) == 0 {
		fmt.Fprintln(w, "No authors found.")
		return
	}
	fmt.Fprintf(w, "%-4s  %-40s  %-7s  %s\n", "Rank", "Author", "Score", "Papers")
	fmt.Fprintln(w, strings.Repeat("-", 64))
	for i, r := range page.Results {
		name := r.Item.Name
		if name == "" {
			name = r.Item.ID
		}
		fmt.Fprintf(w, "%-4d  %-40s  %-7.3f  %d\n", page.Offset+i+1, truncate(name, 40), r.Score, len(r.Papers))
	}
	footer(w, "authors", page.Offset, len(page.Results), page.Total)
}

func formatVenues(res *Result, w io.Writer) {
	page := res.Venues
	if len(page.Results) == 0 {
		fmt.Fprintln(w, "No venues found.")
		return
	}
	fmt.Fprintf(w, "%-4s  %-40s  %-20s  %-7s  %s\n", "Rank", "Venue", "Publisher", "Score", "Papers")
	fmt.Fprintln(w, strings.Repeat("-", 86))
	for i, r := range page.Results {
		name := r.Item.Name
		if name == "" {
			name = r.Item.ID
		}
		fmt.Fprintf(w, "%-4d  %-40s  %-20s  %-7.3f  %d\n",
			page.Offset+i+1, truncate(name, 40), truncate(r.Item.HostOrganizationName, 20), r.Score, len(r.Papers))
	}
	footer(w, "venues", page.Offset, len(page.Results), page.Total)
}

func formatConcepts(res *Result, w io.Writer) {
	page := res.Concepts
	if len(page.Results) == 0 {
		fmt.Fprintln(w, "No concepts found.")
		return
	}
	fmt.Fprintf(w, "%-4s  %-40s  %-7s  %s\n", "Rank", "Concept", "Score", "Papers")
	fmt.Fprintln(w, strings.Repeat("-", 64))
	for i, r := range page.Results {
		name := r.Item.Name
		if name == "" {
			name = r.Item.ID
		}
		fmt.Fprintf(w, "%-4d  %-40s  %-7.3f  %d\n", page.Offset+i+1, truncate(name, 40), r.Score, len(r.Papers))
	}
	footer(w, "concepts", page.Offset, len(page.Results), page.Total)
}

func footer(w io.Writer, noun string, offset, n, total int) {
	fmt.Fprintf(w, "\n%s %d-%d of %d\n\n", noun, offset+1, offset+n, total)
}

// FormatJSON writes the result as indented JSON to w.
func FormatJSON(res *Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
