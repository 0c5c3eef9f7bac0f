package mediaserver

// TicksPerSecond is the server's time unit: 1 tick = 100ns. All position and
// duration values crossing the API boundary are expressed in ticks; internal
// computation uses seconds and converts here.
const TicksPerSecond = 10_000_000

// TicksToSeconds converts a server tick value to seconds.
func TicksToSeconds(ticks int64) float64 {
	return float64(ticks) / TicksPerSecond
}

// SecondsToTicks converts seconds to server ticks, truncating the fraction.
// Negative inputs clamp to zero; a position before the stream start is
// meaningless to the server.
func SecondsToTicks(seconds float64) int64 {
	if seconds <= 0 {
		return 0
	}
	return int64(seconds * TicksPerSecond)
}
