package maintenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveIsSupersetWithoutDuplicates(t *testing.T) {
	tests := []struct {
		name     string
		user     []string
		defaults []string
		want     []string
	}{
		{"empty user", nil, []string{"migrations"}, []string{"migrations"}},
		{"disjoint", []string{"audit_log"}, []string{"migrations"}, []string{"audit_log", "migrations"}},
		{"overlap", []string{"migrations", "jobs", "jobs"}, []string{"migrations", "jobs"}, []string{"jobs", "migrations"}},
		{"blank names dropped", []string{" ", "", " users "}, nil, []string{"users"}},
		{"both empty", nil, nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := Resolve(tt.user, tt.defaults)
			assert.Equal(t, tt.want, set.Names())
			for _, d := range tt.defaults {
				assert.True(t, set.Contains(d))
			}
		})
	}
}

func TestDropTargetsNeverIncludeMigrationsTable(t *testing.T) {
	catalogs := [][]string{
		{"migrations"},
		{"users", "migrations", "orders"},
		{"jobs", "oauth_clients", "migrations"},
	}

	for _, catalog := range catalogs {
		targets := Targets(catalog, Resolve(nil, DropDefaults("migrations")))
		assert.NotContains(t, targets, "migrations")
	}

	targets := Targets([]string{"users", "migrations", "jobs"}, Resolve(nil, DropDefaults("migrations")))
	assert.Equal(t, []string{"users", "jobs"}, targets, "drop only protects the migrations table")
}

func TestTruncateTargetsNeverIncludeProtectedTables(t *testing.T) {
	catalog := []string{
		"users", "migrations", "jobs", "failed_jobs",
		"oauth_access_tokens", "oauth_auth_codes", "oauth_clients",
		"oauth_personal_access_clients", "oauth_refresh_tokens", "orders",
	}
	protected := TruncateDefaults("migrations")

	// Whatever the caller passes, the protected set stays excluded.
	for _, user := range [][]string{nil, {"users"}, {"!jobs", "-migrations"}, protected} {
		targets := Targets(catalog, Resolve(user, protected))
		for _, p := range protected {
			assert.NotContains(t, targets, p)
		}
	}

	assert.Equal(t, []string{"orders"}, Targets(catalog, Resolve([]string{"users"}, protected)))
}

func TestTruncateAllKeepsMigrationsAndUserExclusionsOnly(t *testing.T) {
	catalog := []string{"users", "migrations", "jobs", "oauth_clients"}

	targets := Targets(catalog, Resolve([]string{"users"}, TruncateAllDefaults("migrations")))
	assert.Equal(t, []string{"jobs", "oauth_clients"}, targets)

	targets = Targets(catalog, Resolve(nil, TruncateAllDefaults("migrations")))
	assert.NotContains(t, targets, "migrations")
}

func TestTargetsPreserveCatalogOrder(t *testing.T) {
	targets := Targets([]string{"b", "a", "c"}, Resolve([]string{"a"}, nil))
	assert.Equal(t, []string{"b", "c"}, targets)
}
