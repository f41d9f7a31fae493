package manifest

import (
	"strings"

	"github.com/openmined/arfsync/pkg/arfs"
)

const DefaultGateway = "https://arweave.net"

// Links returns the URL of the manifest itself followed by one URL per
// manifest path, in path order. Every path segment is escaped on its own so
// folder separators survive.
func (m *Manifest) Links(gateway string, manifestID arfs.TransactionID) []string {
	if gateway == "" {
		gateway = DefaultGateway
	}
	root := strings.TrimRight(gateway, "/") + "/" + manifestID.String()

	paths := m.RelativePaths()
	links := make([]string, 0, len(paths)+1)
	links = append(links, root)
	for _, p := range paths {
		links = append(links, root+"/"+EscapePath(p))
	}
	return links
}

// EscapePath percent-encodes each "/" separated segment of p.
func EscapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = escapeComponent(s)
	}
	return strings.Join(segments, "/")
}

const upperhex = "0123456789ABCDEF"

// escapeComponent escapes everything except unreserved characters and
// !*'() the way browsers encode a single URI component.
func escapeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldKeep(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func shouldKeep(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
