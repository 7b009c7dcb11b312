package lifecycle

// Chromium network error codes, negative by convention.
const (
	errAborted           = -3
	errConnectionRefused = -102
	errConnectionTimeout = -118
	errBlockedByClient   = -20
	errBlockedByResponse = -27
	errInsecureResponse  = -501
)

// authBlockedCodes are the codes identity providers produce when they refuse
// to run inside an embedded browser context. Combined with a known auth
// host, they trigger the system-browser handoff.
var authBlockedCodes = map[int]struct{}{
	errAborted:           {},
	errBlockedByClient:   {},
	errBlockedByResponse: {},
}

// sslFailureCodes mark a failed automatic HTTP to HTTPS upgrade: certificate
// errors plus refused or timed-out connections. The certificate range is
// contiguous in Chromium (-200..-218).
var sslFailureCodes = map[int]struct{}{
	errConnectionRefused: {},
	errConnectionTimeout: {},
	errInsecureResponse:  {},
}

func isSSLFailure(code int) bool {
	if code <= -200 && code >= -218 {
		return true
	}
	_, ok := sslFailureCodes[code]
	return ok
}

func isAuthBlocked(code int) bool {
	_, ok := authBlockedCodes[code]
	return ok
}

// defaultAuthDomains are hosts that commonly refuse embedded-context logins.
var defaultAuthDomains = []string{
	"accounts.google.com",
	"login.microsoftonline.com",
	"login.live.com",
	"appleid.apple.com",
	"sso.godaddy.com",
}

// defaultOAuthPopupDomains are identity providers whose popups must open as
// real native windows: their multi-step flows inspect window properties
// that a flattened navigation cannot satisfy. Matched on the registrable
// domain, so login.okta.com is covered by okta.com.
var defaultOAuthPopupDomains = []string{
	"accounts.google.com",
	"login.microsoftonline.com",
	"appleid.apple.com",
	"okta.com",
	"auth0.com",
	"duosecurity.com",
	"onelogin.com",
}
