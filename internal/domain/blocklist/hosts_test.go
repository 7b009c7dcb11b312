package blocklist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHosts = `# StevenBlack-style header
# with multiple comment lines

127.0.0.1 localhost
127.0.0.1 localhost.localdomain
255.255.255.255 broadcasthost
::1 localhost
::1 ip6-localhost
::1 ip6-loopback

0.0.0.0 ads.example.com
0.0.0.0 Tracker.Example.NET  # inline comment
0.0.0.0 ads.example.com
0.0.0.0 *.wildcard.example
0.0.0.0 .leading-dot.example
0.0.0.0 noperiod
0.0.0.0 metrics.example.org analytics.example.org
this line is garbage but parsing keeps going
0.0.0.0 pixel.example.io
`

func TestParseHosts(t *testing.T) {
	domains, err := ParseHosts(strings.NewReader(sampleHosts))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"ads.example.com",
		"tracker.example.net",
		"metrics.example.org",
		"analytics.example.org",
		"pixel.example.io",
	}, domains)
}

func TestParseHostsSkipsLoopbackNames(t *testing.T) {
	domains, err := ParseHosts(strings.NewReader(sampleHosts))
	require.NoError(t, err)

	for _, d := range domains {
		_, excluded := excludedHosts[d]
		assert.False(t, excluded, "loopback name %q leaked into rules", d)
	}
}

func TestParseHostsEmptyInput(t *testing.T) {
	domains, err := ParseHosts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, domains)

	domains, err = ParseHosts(strings.NewReader("# only comments\n\n# nothing else\n"))
	require.NoError(t, err)
	assert.Empty(t, domains)
}

func TestParseHostsMultipleNamesPerLine(t *testing.T) {
	domains, err := ParseHosts(strings.NewReader("0.0.0.0 a.example.com b.example.com c.example.com\n"))
	require.NoError(t, err)
	assert.Len(t, domains, 3)
}
