package consts

const (
	SessionKey        = "session:"
	WaterHistoryKey   = "water:history:"
	CleanupLockPrefix = "lock:cleanup:"
)
