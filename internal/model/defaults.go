package model

import "time"

// Shared defaults used by the watcher and the offline binaries.
const (
	DefaultCooldown          = 5 * time.Minute
	DefaultOutputPath        = "./tmp/watcher-out.txt"
	DefaultActivityThreshold = 0.05
	DefaultSLOMillis         = 100.0
	DefaultRoundInterval     = 1.0 // minutes per round on chart axes
	DefaultChartDir          = "watcher-graphs"
)
