package gateway

// Test-only exports for internal functions.
var (
	ClientKeyOf       = clientKey
	RequestIDOf       = requestID
	UnderPrefix       = underPrefix
	StripPrefix       = stripPrefix
	AcceptsGzip       = acceptsGzip
	RetryAfterSeconds = retryAfterSeconds
)
