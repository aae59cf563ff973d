package featureflag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeatureFlag(t *testing.T) {
	f := New([]string{"FULL_REBUILD", " disable_collisions ", ""})

	t.Run("flags are normalized", func(t *testing.T) {
		require.True(t, f.IsSet(FlagFullRebuild))
		require.True(t, f.IsSet(FlagDisableCollisions))
		require.False(t, f.IsSet(FlagDisableFrameLogs))
		require.ElementsMatch(t, []string{"FULL_REBUILD", "DISABLE_COLLISIONS"}, f.List())
	})

	t.Run("run if enabled", func(t *testing.T) {
		var runFullRebuild bool
		f.IfSet(FlagFullRebuild, func() {
			runFullRebuild = true
		})
		require.True(t, runFullRebuild)

		var runFrameLogs bool
		f.IfSet(FlagDisableFrameLogs, func() {
			runFrameLogs = true
		})
		require.False(t, runFrameLogs)
	})

	t.Run("run if disabled", func(t *testing.T) {
		var runFullRebuild bool
		f.IfNotSet(FlagFullRebuild, func() {
			runFullRebuild = true
		})
		require.False(t, runFullRebuild)

		var runFrameLogs bool
		f.IfNotSet(FlagDisableFrameLogs, func() {
			runFrameLogs = true
		})
		require.True(t, runFrameLogs)
	})

	t.Run("nil flags are all disabled", func(t *testing.T) {
		var empty FeatureFlag
		require.False(t, empty.IsSet(FlagFullRebuild))
	})
}
