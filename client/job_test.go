package client_test

import (
	"testing"

	"github.com/caffeineduck/piston/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobBuildMissingLanguage(t *testing.T) {
	_, err := client.NewJob().Main("fn main(){}").Build()
	require.Error(t, err)

	var cfgErr *client.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "language", cfgErr.Field)
	assert.ErrorIs(t, err, client.ErrMissingLanguage)
	assert.NotErrorIs(t, err, client.ErrMissingMain)
	assert.Equal(t, "missing language", err.Error())
}

func TestJobBuildMissingMain(t *testing.T) {
	_, err := client.NewJob().Language("rust").Add(client.File{Content: "mod a;"}).Build()
	require.Error(t, err)

	var cfgErr *client.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "main", cfgErr.Field)
	assert.ErrorIs(t, err, client.ErrMissingMain)
	assert.ErrorIs(t, err, client.ErrInvalidConfig)
}

func TestJobBuildEmptyMainIsAllowed(t *testing.T) {
	job, err := client.NewJob().Language("rust").Main("").Build()
	require.NoError(t, err)
	assert.Equal(t, []client.File{{}}, job.Files())
}

func TestJobFilesOrder(t *testing.T) {
	job, err := client.NewJob().
		Language("rust").
		Add(client.File{Name: "a.rs"}).
		MainFile(client.File{Name: "main.rs"}).
		Add(client.File{Name: "b.rs"}).
		Build()
	require.NoError(t, err)

	var names []string
	for _, f := range job.Files() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"main.rs", "a.rs", "b.rs"}, names)
}

func TestJobBuildSnapshotsBuilder(t *testing.T) {
	b := client.NewJob().Language("rust").Main("fn main(){}")
	first, err := b.Build()
	require.NoError(t, err)

	b.Add(client.File{Name: "late.rs"})
	assert.Len(t, first.Files(), 1)
}
