package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmin-city/xmin/internal/config"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"serve", "categories", "fetch"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "xmin", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestFetchCommand_Flags(t *testing.T) {
	flag := fetchCmd.Flags().Lookup("json")
	require.NotNil(t, flag, "fetch command should have --json flag")
	assert.Equal(t, "false", flag.DefValue)
}

func TestLoadRules_DefaultWhenNoFile(t *testing.T) {
	rules, err := loadRules(&config.Config{})
	require.NoError(t, err)
	assert.Contains(t, rules.Categories(), "park")
}

func TestLoadGrid_UnknownSource(t *testing.T) {
	_, err := loadGrid(&config.Config{Data: config.DataConfig{GridSource: "postgres"}})
	assert.Error(t, err)
}

func TestRetryPolicy_FromConfig(t *testing.T) {
	p := retryPolicy(config.RetryConfig{
		ShortAttempts:  3,
		ShortDelaySecs: 10,
		LongDelaySecs:  30,
		MaxAttempts:    5,
	})
	assert.Equal(t, 3, p.ShortAttempts)
	assert.Equal(t, 10*time.Second, p.ShortDelay)
	assert.Equal(t, 30*time.Second, p.LongDelay)
	assert.Equal(t, 5, p.MaxAttempts)
}

func TestOverpassBBox_Order(t *testing.T) {
	b := overpassBBox(&config.Config{Overpass: config.OverpassConfig{
		BBox: []float64{51.0, 6.9, 51.3, 7.4},
	}})
	assert.Equal(t, 51.0, b.South)
	assert.Equal(t, 6.9, b.West)
	assert.Equal(t, 51.3, b.North)
	assert.Equal(t, 7.4, b.East)
}
