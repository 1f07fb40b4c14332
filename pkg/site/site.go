// Package site bridges sitesync to the local storage of a website. A Tab
// names the page being synced, and an adapter reads and writes the page's
// local key/value storage as a flat Snapshot.
package site

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/sidkik/sitesync/pkg/errors"
)

// Tab identifies the page whose local storage is being synced. It is passed
// explicitly into every sync operation.
type Tab struct {
	// ID is an opaque handle for the page, used only for logging.
	ID string

	// URL is the address of the page. The site origin is derived from it.
	URL string

	// Path is where the FileAdapter finds the page's local storage dump.
	Path string
}

// Origin returns the namespace under which the tab's synced data is stored:
// the URL's scheme and host, followed by the path up to (but not including)
// its final slash. For example, `https://example.com/app/index.html` has the
// origin `https://example.com/app`.
func (tab Tab) Origin() (string, error) {
	return Origin(tab.URL)
}

// Origin derives the site origin of `rawURL`.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.WithContext(err, "parse url")
	}

	if u.Scheme == "" || u.Host == "" {
		return "", errors.NewFriendlyError(
			"%q is not an absolute URL. Site URLs must include a scheme and host, "+
				"such as https://example.com/.", rawURL)
	}

	prefix := u.EscapedPath()
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		prefix = prefix[:i]
	} else {
		prefix = ""
	}
	scheme := strings.ToLower(u.Scheme)
	host := u.Host
	if port := u.Port(); port != "" && defaultPorts[scheme] == port {
		host = strings.TrimSuffix(host, ":"+port)
	}
	return scheme + "://" + strings.ToLower(host) + prefix, nil
}

// defaultPorts are left out of origins, as browsers do.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// Snapshot is a flat capture of a key/value store at one instant.
type Snapshot map[string]string

// Clone returns a copy of the snapshot. The copy never aliases the original,
// so it can be modified freely.
func (s Snapshot) Clone() Snapshot {
	clone := make(Snapshot, len(s))
	for k, v := range s {
		clone[k] = v
	}
	return clone
}

// Keys returns the snapshot's keys in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns a pointer to the value for `key`, or nil if the key is
// absent.
func (s Snapshot) Lookup(key string) *string {
	v, ok := s[key]
	if !ok {
		return nil
	}
	return &v
}

// ParseSnapshot parses a JSON object into a Snapshot. String values are
// used as-is. Any other value is kept as its JSON text so that the snapshot
// stays flat.
func ParseSnapshot(b []byte) (Snapshot, error) {
	snapshot := Snapshot{}
	if len(strings.TrimSpace(string(b))) == 0 {
		return snapshot, nil
	}

	if !gjson.ValidBytes(b) {
		return nil, errors.New("invalid JSON")
	}

	parsed := gjson.ParseBytes(b)
	if !parsed.IsObject() {
		return nil, errors.New("expected a JSON object, got %s", parsed.Type)
	}

	parsed.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String {
			snapshot[key.String()] = value.Str
		} else {
			snapshot[key.String()] = value.Raw
		}
		return true
	})
	return snapshot, nil
}

// Marshal encodes the snapshot as an indented JSON object with sorted keys.
func (s Snapshot) Marshal() ([]byte, error) {
	if s == nil {
		s = Snapshot{}
	}
	return json.MarshalIndent(s, "", "  ")
}
