package featureflag

type Flag string

const (
	// Rebuilds the index from scratch every frame instead of moving the
	// bodies that changed.
	FlagFullRebuild Flag = "FULL_REBUILD"

	FlagDisableCollisions Flag = "DISABLE_COLLISIONS"
	FlagDisableFrameLogs  Flag = "DISABLE_FRAME_LOGS"
)
