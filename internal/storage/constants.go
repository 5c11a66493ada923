package db

import "time"

// Database connection constants
const (
	// ConnectionRetrySleep is the sleep duration between connection retries
	ConnectionRetrySleep = 2 * time.Second
	// maxConnectionRetries is the number of retries for initial connection
	maxConnectionRetries = 10
)

// Database pool default constants
const (
	defaultMaxConns          int32         = 25
	defaultMinConns          int32         = 5
	defaultMaxConnIdleTime   time.Duration = 30 * time.Minute
	defaultMaxConnLifetime   time.Duration = time.Hour
	defaultHealthCheckPeriod time.Duration = time.Minute
)

// Digest source limits.
const (
	// digestRoomLimit caps how many rooms per platform feed a digest.
	digestRoomLimit = 5
	// digestRoomScan caps how many events are read per room before filtering.
	digestRoomScan = 50
)

const errFmtScanRow = "scan %s row: %w"
