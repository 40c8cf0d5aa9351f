// Package auth derives HTTP authentication headers from backend settings.
package auth

import (
	"encoding/base64"
	"sort"

	"github.com/pokgak/lgtm-cli/pkg/config"
)

// Header is one HTTP header to attach to every request for a backend.
type Header struct {
	Name  string
	Value string
}

// Headers resolves the ordered list of authentication headers for the given
// backend settings. Custom headers come first (sorted by name), followed by
// at most one Authorization header: Basic when both username and token are
// set, Bearer when only a token is set. Custom headers are additive with
// Basic/Bearer. Pure function, no I/O.
func Headers(b *config.Backend) []Header {
	if b == nil {
		return nil
	}

	var headers []Header

	names := make([]string, 0, len(b.Headers))
	for name := range b.Headers {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		headers = append(headers, Header{Name: name, Value: b.Headers[name]})
	}

	switch {
	case b.Username != "" && b.Token != "":
		credentials := base64.StdEncoding.EncodeToString([]byte(b.Username + ":" + b.Token))
		headers = append(headers, Header{Name: "Authorization", Value: "Basic " + credentials})
	case b.Token != "":
		headers = append(headers, Header{Name: "Authorization", Value: "Bearer " + b.Token})
	}

	return headers
}
