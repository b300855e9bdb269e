package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Rana718/dbkeeper/internal/config"
	"github.com/Rana718/dbkeeper/internal/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Environment: "production",
		Connections: map[string]config.Connection{
			"testing": {Driver: "sqlite", URL: filepath.Join(t.TempDir(), "app.db")},
		},
	}
}

func TestEnvironmentOverride(t *testing.T) {
	cfg := testConfig(t)

	rt := New(cfg, Options{Out: &bytes.Buffer{}})
	assert.Equal(t, environment.Production, rt.Guard.Tag())

	rt = New(cfg, Options{Environment: "dev", Out: &bytes.Buffer{}})
	assert.Equal(t, environment.Local, rt.Guard.Tag())
}

func TestTargetUnknownConnectionReturnsNilInterface(t *testing.T) {
	rt := New(testConfig(t), Options{Out: &bytes.Buffer{}})
	defer rt.Close()

	target, err := rt.Target(context.Background(), "mysql")
	require.Error(t, err)
	assert.Nil(t, target)

	target, err = rt.Target(context.Background(), "testing")
	require.NoError(t, err)
	assert.Equal(t, "testing", target.Name())
}

func TestConfirmUsesRuntimeInput(t *testing.T) {
	var out bytes.Buffer
	rt := New(testConfig(t), Options{In: strings.NewReader("y\n"), Out: &bytes.Buffer{}, ErrOut: &out})

	ok, err := rt.Confirm("Proceed?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Proceed?")

	forced := New(testConfig(t), Options{Force: true, In: strings.NewReader(""), Out: &bytes.Buffer{}})
	ok, err = forced.Confirm("Proceed?")
	require.NoError(t, err)
	assert.True(t, ok)
}
