package redis

import "ridehail/internal/service"

// Ensure concrete types implement the service ports.
var (
	_ service.PresenceFeed = (*PresenceStore)(nil)
	_ service.DedupeStore  = (*DedupeStore)(nil)
	_ service.RideCache    = (*CacheStore)(nil)
)
