package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Rana718/dbkeeper/internal/backup"
	"github.com/Rana718/dbkeeper/internal/maintenance"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func init() {
	color.NoColor = true
}

func sampleOutcome() *maintenance.Outcome {
	return &maintenance.Outcome{
		Kind:       maintenance.Drop,
		Connection: "mysql",
		Planned:    3,
		Results: []maintenance.TableResult{
			{Table: "orders", Err: errors.New("lock wait timeout")},
			{Table: "customers"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "table": FormatTable, "YAML": FormatYAML, "yml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("json")
	assert.Error(t, err)
}

func TestOutcomeTable(t *testing.T) {
	var buf bytes.Buffer
	meta := Meta{Environment: "local", Database: "app", Excluded: []string{"migrations"}}
	require.NoError(t, NewPrinter(&buf, FormatTable).Outcome(sampleOutcome(), meta))

	out := buf.String()
	assert.Contains(t, out, "orders")
	assert.Contains(t, out, "lock wait timeout")
	for _, want := range []string{"Tables Dropped", "Tables Failed", "Tables Skipped", "Environment", "local", "Connection", "mysql", "Database", "app"} {
		assert.Contains(t, out, want)
	}
}

func TestOutcomeYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatYAML).Outcome(sampleOutcome(), Meta{Environment: "testing", Excluded: []string{"migrations"}}))

	var doc outcomeDoc
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "drop", doc.Operation)
	assert.Equal(t, "testing", doc.Environment)
	assert.Equal(t, []string{"migrations"}, doc.Excluded)
	assert.Equal(t, 1, doc.Failed)
	assert.Equal(t, 1, doc.Skipped)
	require.Len(t, doc.Results, 2)
	assert.Equal(t, "failed", doc.Results[0].Status)
	assert.Equal(t, "ok", doc.Results[1].Status)
}

func TestPlanMarksProtectedTables(t *testing.T) {
	plan := &maintenance.Plan{
		Connection: "mysql",
		Catalog:    []string{"users", "migrations"},
		Excluded:   []string{"migrations"},
		Targets:    []string{"users"},
	}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable).Plan(plan, "truncate"))

	var usersLine, migrationsLine string
	for _, line := range strings.Split(buf.String(), "\n") {
		switch {
		case strings.Contains(line, "users"):
			usersLine = line
		case strings.Contains(line, "migrations"):
			migrationsLine = line
		}
	}
	assert.Contains(t, usersLine, "target")
	assert.Contains(t, migrationsLine, "protected")
	assert.Contains(t, buf.String(), "2 tables on mysql, 1 targeted by truncate")
}

func TestResetYAML(t *testing.T) {
	res := &maintenance.ResetResult{
		State:   maintenance.Committed,
		History: []maintenance.State{maintenance.Idle, maintenance.GuardChecked, maintenance.Committed},
		Drops:   []*maintenance.Outcome{sampleOutcome()},
	}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatYAML).Reset(res))

	var doc resetDoc
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "Committed", doc.State)
	assert.Equal(t, []string{"Idle", "GuardChecked", "Committed"}, doc.History)
	require.Len(t, doc.Drops, 1)
}

func TestArtifactTableShowsRetainedArchive(t *testing.T) {
	var buf bytes.Buffer
	a := &backup.Artifact{Connection: "mysql", ArchivePath: "storage/app/database_dump.zip", Retained: true}
	require.NoError(t, NewPrinter(&buf, FormatTable).Artifact(a))
	assert.Contains(t, buf.String(), "storage/app/database_dump.zip")
}
