package maintenance

import (
	"sort"
	"strings"
)

// Tables no truncate may touch, whatever the operator excludes.
var (
	JobTables = []string{"jobs", "failed_jobs"}

	CredentialTables = []string{
		"oauth_access_tokens",
		"oauth_auth_codes",
		"oauth_clients",
		"oauth_personal_access_clients",
		"oauth_refresh_tokens",
	}
)

// ExclusionSet is a computed, read-only set of table names.
type ExclusionSet map[string]struct{}

// Resolve returns defaults ∪ user. Blank names are ignored. It never fails.
func Resolve(user, defaults []string) ExclusionSet {
	set := make(ExclusionSet, len(user)+len(defaults))
	for _, group := range [][]string{defaults, user} {
		for _, name := range group {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			set[name] = struct{}{}
		}
	}
	return set
}

func (s ExclusionSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the members in sorted order.
func (s ExclusionSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DropDefaults protects only the migration bookkeeping table. It is the
// minimum exclusion set of every operation.
func DropDefaults(migrationsTable string) []string {
	return []string{migrationsTable}
}

// TruncateAllDefaults keeps migration bookkeeping but none of the job or
// credential tables.
func TruncateAllDefaults(migrationsTable string) []string {
	return DropDefaults(migrationsTable)
}

// TruncateDefaults protects migration bookkeeping, job queues and credentials.
func TruncateDefaults(migrationsTable string) []string {
	defaults := []string{migrationsTable}
	defaults = append(defaults, JobTables...)
	defaults = append(defaults, CredentialTables...)
	return defaults
}

// Targets filters catalog by exclusions, keeping catalog order.
func Targets(catalog []string, exclusions ExclusionSet) []string {
	targets := make([]string, 0, len(catalog))
	for _, table := range catalog {
		if !exclusions.Contains(table) {
			targets = append(targets, table)
		}
	}
	return targets
}
