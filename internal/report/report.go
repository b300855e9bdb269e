// Package report renders command results as a terminal table or YAML.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Rana718/dbkeeper/internal/backup"
	"github.com/Rana718/dbkeeper/internal/maintenance"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat accepts "table", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table or yaml)", s)
	}
}

type Printer struct {
	w      io.Writer
	format Format
}

func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

type tableResult struct {
	Table  string `yaml:"table"`
	Status string `yaml:"status"`
	Error  string `yaml:"error,omitempty"`
}

// Meta describes where an outcome was produced.
type Meta struct {
	Environment string
	Database    string
	Excluded    []string
}

type outcomeDoc struct {
	Connection  string        `yaml:"connection"`
	Database    string        `yaml:"database,omitempty"`
	Environment string        `yaml:"environment,omitempty"`
	Operation   string        `yaml:"operation"`
	Planned     int           `yaml:"planned"`
	Succeeded   int           `yaml:"succeeded"`
	Failed      int           `yaml:"failed"`
	Skipped     int           `yaml:"skipped"`
	Excluded    []string      `yaml:"excluded,omitempty"`
	Results     []tableResult `yaml:"results"`
}

func newOutcomeDoc(out *maintenance.Outcome, meta Meta) outcomeDoc {
	doc := outcomeDoc{
		Connection:  out.Connection,
		Database:    meta.Database,
		Environment: meta.Environment,
		Operation:   out.Kind.String(),
		Planned:     out.Planned,
		Succeeded:   out.Succeeded(),
		Failed:      out.Failed(),
		Skipped:     out.Skipped(),
		Excluded:    meta.Excluded,
		Results:     []tableResult{},
	}
	for _, r := range out.Results {
		row := tableResult{Table: r.Table, Status: "ok"}
		if r.Err != nil {
			row.Status = "failed"
			row.Error = r.Err.Error()
		}
		doc.Results = append(doc.Results, row)
	}
	return doc
}

// Outcome prints the per-table results of a drop or truncate run followed by
// a Status/Details summary.
func (p *Printer) Outcome(out *maintenance.Outcome, meta Meta) error {
	doc := newOutcomeDoc(out, meta)
	if p.format == FormatYAML {
		return p.yaml(doc)
	}

	if len(doc.Results) > 0 {
		table := p.table([]string{"Table", "Status", "Error"})
		for _, r := range doc.Results {
			status := color.GreenString("✓ " + r.Status)
			if r.Error != "" {
				status = color.RedString("✗ " + r.Status)
			}
			table.Append([]string{r.Table, status, r.Error})
		}
		table.Render()
		fmt.Fprintln(p.w)
	}

	summary := p.table([]string{"Status", "Details"})
	if meta.Database != "" {
		summary.Append([]string{"Database", meta.Database})
	}
	summary.Append([]string{"Tables " + out.Kind.Past(), strconv.Itoa(doc.Succeeded)})
	if doc.Failed > 0 {
		summary.Append([]string{"Tables Failed", color.RedString(strconv.Itoa(doc.Failed))})
	}
	if doc.Skipped > 0 {
		summary.Append([]string{"Tables Skipped", color.YellowString(strconv.Itoa(doc.Skipped))})
	}
	if len(meta.Excluded) > 0 {
		summary.Append([]string{"Excluded", strings.Join(meta.Excluded, ", ")})
	}
	if meta.Environment != "" {
		summary.Append([]string{"Environment", meta.Environment})
	}
	summary.Append([]string{"Connection", doc.Connection})
	summary.Render()
	return nil
}

type planDoc struct {
	Connection string   `yaml:"connection"`
	Operation  string   `yaml:"operation"`
	Targets    []string `yaml:"targets"`
	Excluded   []string `yaml:"excluded"`
}

// Plan prints the catalog of a connection and what an operation would touch.
func (p *Printer) Plan(plan *maintenance.Plan, operation string) error {
	if p.format == FormatYAML {
		doc := planDoc{
			Connection: plan.Connection,
			Operation:  operation,
			Targets:    nonNil(plan.Targets),
			Excluded:   nonNil(plan.Excluded),
		}
		return p.yaml(doc)
	}

	excluded := make(map[string]bool, len(plan.Excluded))
	for _, name := range plan.Excluded {
		excluded[name] = true
	}

	table := p.table([]string{"Table", operation})
	for _, name := range plan.Catalog {
		mark := color.YellowString("target")
		if excluded[name] {
			mark = color.New(color.Faint).Sprint("protected")
		}
		table.Append([]string{name, mark})
	}
	table.Render()
	fmt.Fprintf(p.w, "\n%d tables on %s, %d targeted by %s\n", len(plan.Catalog), plan.Connection, len(plan.Targets), operation)
	return nil
}

type resetDoc struct {
	State   string       `yaml:"state"`
	History []string     `yaml:"history"`
	Drops   []outcomeDoc `yaml:"drops"`
}

// Reset prints the state history and both drop passes.
func (p *Printer) Reset(res *maintenance.ResetResult) error {
	doc := resetDoc{State: res.State.String(), History: []string{}, Drops: []outcomeDoc{}}
	for _, s := range res.History {
		doc.History = append(doc.History, s.String())
	}
	for _, out := range res.Drops {
		doc.Drops = append(doc.Drops, newOutcomeDoc(out, Meta{}))
	}
	if p.format == FormatYAML {
		return p.yaml(doc)
	}

	table := p.table([]string{"Connection", "Dropped", "Failed"})
	for _, d := range doc.Drops {
		table.Append([]string{d.Connection, strconv.Itoa(d.Succeeded), strconv.Itoa(d.Failed)})
	}
	table.Render()
	fmt.Fprintf(p.w, "\nState: %s\n", strings.Join(doc.History, " → "))
	return nil
}

// Artifact prints where a dump ended up.
func (p *Printer) Artifact(a *backup.Artifact) error {
	if p.format == FormatYAML {
		return p.yaml(a)
	}

	table := p.table([]string{"Field", "Value"})
	table.Append([]string{"Connection", a.Connection})
	if a.Retained {
		table.Append([]string{"Archive", a.ArchivePath})
	}
	if a.RemoteKey != "" {
		table.Append([]string{"Remote", a.Destination + "/" + a.RemoteKey})
		table.Append([]string{"Uploaded", strconv.FormatBool(a.Uploaded)})
	}
	table.Render()
	return nil
}

func (p *Printer) table(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(p.w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetColumnSeparator(" ")
	return table
}

func (p *Printer) yaml(v interface{}) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
