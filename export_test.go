package endpoints

// Test-only exports for internal functions.
var (
	FormatRead        = formatRead
	FormatRecord      = formatRecord
	ErrorObjects      = errorObjects
	CheckMediaType    = checkMediaType
	DecodePrimaryData = decodePrimaryData
	JoinURL           = joinURL
)
