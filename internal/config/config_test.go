package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chtl-lang/chtl/internal/config"
	"github.com/chtl-lang/chtl/internal/logger"
)

func TestDefaultGroupSeedsSpecDefaults(t *testing.T) {
	e := config.NewEngine(logger.NewLog(false))
	assert.Equal(t, 0, e.Active().Int(config.OptIndexInitialCount, -1))
	assert.False(t, e.Active().Bool(config.OptDisableDefaultNamespace))
}

func TestRegisterNormalizesCasing(t *testing.T) {
	e := config.NewEngine(logger.NewLog(false))
	g, err := e.Register("MyConfig", map[string]string{"debugMode": "true"}, nil, nil, nil, "")
	require.NoError(t, err)
	assert.True(t, g.Bool("DEBUG_MODE"))
}

func TestInheritanceOverridesByKey(t *testing.T) {
	e := config.NewEngine(logger.NewLog(false))
	_, err := e.Register("Base", map[string]string{"INDEX_INITIAL_COUNT": "1"}, nil, nil, nil, "")
	require.NoError(t, err)
	child, err := e.Register("Child", map[string]string{"DEBUG_MODE": "true"}, nil, nil, nil, "Base")
	require.NoError(t, err)
	assert.Equal(t, 1, child.Int(config.OptIndexInitialCount, -1))
	assert.True(t, child.Bool(config.OptDebugMode))
}

func TestResolveKeywordPrefersAliasButKeepsCore(t *testing.T) {
	e := config.NewEngine(logger.NewLog(false))
	g, err := e.Register("Aliased", nil, nil, map[string]string{"inherit": "extends"}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "extends", g.ResolveKeyword("inherit"))
	assert.ElementsMatch(t, []string{"inherit", "extends"}, g.AliasesFor("inherit"))
	// Core keyword with no alias registered is never suppressed.
	assert.Equal(t, "delete", g.ResolveKeyword("delete"))
}

func TestActivateSwitchesActiveGroup(t *testing.T) {
	e := config.NewEngine(logger.NewLog(false))
	_, err := e.Register("Strict", map[string]string{"DEBUG_MODE": "true"}, nil, nil, nil, "")
	require.NoError(t, err)
	g, err := e.Activate("Strict")
	require.NoError(t, err)
	assert.Same(t, g, e.Active())
	assert.True(t, e.Active().Bool(config.OptDebugMode))
}

func TestMergeYAMLOverridesOptions(t *testing.T) {
	e := config.NewEngine(logger.NewLog(false))
	_, err := e.Register("Shared", nil, nil, nil, nil, "")
	require.NoError(t, err)
	err = e.MergeYAML("Shared", []byte("options:\n  DEBUG_MODE: \"true\"\noriginTypes:\n  - \"@Vue\"\n"))
	require.NoError(t, err)
	g, err := e.Activate("Shared")
	require.NoError(t, err)
	assert.True(t, g.Bool(config.OptDebugMode))
	assert.True(t, g.IsOriginType("@Vue"))
}
