package pulsarbench

const sentinelByte byte = 0

// SentinelPayload ends a stream. Only the first byte matters; anything following it is ignored.
var SentinelPayload = []byte{sentinelByte}

// IsSentinel reports whether payload marks the end of a stream. Empty payloads are ordinary messages.
func IsSentinel(payload []byte) bool {
	return len(payload) > 0 && payload[0] == sentinelByte
}
