package cdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetErrorCode(t *testing.T) {
	assert.Equal(t, -20, netErrorCode("net::ERR_BLOCKED_BY_CLIENT"))
	assert.Equal(t, -202, netErrorCode("net::ERR_CERT_AUTHORITY_INVALID"))
	assert.Equal(t, -501, netErrorCode("net::ERR_INSECURE_RESPONSE"))
	assert.Equal(t, 0, netErrorCode("net::ERR_SOMETHING_NEW"), "unknown codes must not collide with triage sets")
}
