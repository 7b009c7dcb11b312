package blocklist

import (
	"bufio"
	"io"
	"strings"
)

// Hostnames that appear in every hosts file but must never become rules.
var excludedHosts = map[string]struct{}{
	"localhost":             {},
	"localhost.localdomain": {},
	"broadcasthost":         {},
	"local":                 {},
	"ip6-localhost":         {},
	"ip6-loopback":          {},
}

// ParseHosts parses newline-delimited hosts-file content ("<ip> <domain>")
// and returns the domains found. Comments, blank lines, wildcards, and the
// standard loopback names are skipped. Parsing is line-tolerant: a bad line
// never fails the whole file.
func ParseHosts(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	seen := make(map[string]struct{})
	out := make([]string, 0, 256)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		// fields[0] is the IP, ignored.
		for _, raw := range fields[1:] {
			if strings.HasPrefix(raw, ".") || strings.Contains(raw, "*") {
				continue
			}
			name := Normalize(raw)
			if name == "" || !strings.Contains(name, ".") {
				continue
			}
			if _, excluded := excludedHosts[name]; excluded {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
