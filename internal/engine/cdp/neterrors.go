package cdp

// Chromium reports load failures by symbolic name over the DevTools
// protocol; downstream triage works on the numeric net error codes.
var netErrorCodes = map[string]int{
	"net::ERR_ABORTED":                         -3,
	"net::ERR_BLOCKED_BY_CLIENT":               -20,
	"net::ERR_BLOCKED_BY_RESPONSE":             -27,
	"net::ERR_CONNECTION_CLOSED":               -100,
	"net::ERR_CONNECTION_RESET":                -101,
	"net::ERR_CONNECTION_REFUSED":              -102,
	"net::ERR_CONNECTION_FAILED":               -104,
	"net::ERR_NAME_NOT_RESOLVED":               -105,
	"net::ERR_SSL_PROTOCOL_ERROR":              -107,
	"net::ERR_CONNECTION_TIMED_OUT":            -118,
	"net::ERR_CERT_COMMON_NAME_INVALID":        -200,
	"net::ERR_CERT_DATE_INVALID":               -201,
	"net::ERR_CERT_AUTHORITY_INVALID":          -202,
	"net::ERR_CERT_CONTAINS_ERRORS":            -203,
	"net::ERR_CERT_NO_REVOCATION_MECHANISM":    -204,
	"net::ERR_CERT_UNABLE_TO_CHECK_REVOCATION": -205,
	"net::ERR_CERT_REVOKED":                    -206,
	"net::ERR_CERT_INVALID":                    -207,
	"net::ERR_CERT_WEAK_SIGNATURE_ALGORITHM":   -208,
	"net::ERR_INSECURE_RESPONSE":               -501,
}

// netErrorCode maps a DevTools error text to its numeric code, 0 when
// unknown. Zero never matches any triage set, so unknown failures fall
// through to the default logging path.
func netErrorCode(errorText string) int {
	return netErrorCodes[errorText]
}
