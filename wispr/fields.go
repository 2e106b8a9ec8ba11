package wispr

import (
	"regexp"
	"strings"
)

// Marker is the element name whose presence in a body identifies a WISPr
// gateway response.
const Marker = "WISPAccessGatewayParam"

// Fields holds the flat key/value pairs of one WISPAccessGatewayParam
// fragment.
type Fields map[string]string

// Get returns the value of key and whether it was present.
func (f Fields) Get(key string) (string, bool) {
	v, ok := f[key]
	return v, ok
}

var (
	gatewayParamRe = regexp.MustCompile(`(?is)<WISPAccessGatewayParam[^>]*>\s*<([^<>/\s]+)[^<>]*>(.*)</WISPAccessGatewayParam>`)
	openTagRe      = regexp.MustCompile(`<([^<>/!?][^<>]*)>`)

	entityReplacer = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&apos;", "'",
	)
)

// HasMarker reports whether body contains a WISPr gateway fragment marker.
func HasMarker(body []byte) bool {
	return strings.Contains(string(body), Marker)
}

// Parse extracts the fields of the WISPAccessGatewayParam fragment in body.
// A body without a fragment yields empty Fields.
func Parse(body []byte) Fields {
	_, fields := ParseElement(body)
	return fields
}

// ParseElement is like Parse but also returns the name of the message
// element nested in WISPAccessGatewayParam, e.g. "Redirect" or
// "AuthenticationReply".
//
// Gateways in the wild emit malformed XML, so this is a pattern scan rather
// than an XML decode. Values wrapped as CDATA are returned verbatim, all
// others have the predefined XML entities replaced. A key seen twice keeps
// its last value.
func ParseElement(body []byte) (string, Fields) {
	fields := Fields{}
	m := gatewayParamRe.FindSubmatch(body)
	if m == nil {
		return "", fields
	}
	element := string(m[1])
	inner := string(m[2])
	// the message element must be closed right before the outer one
	trimmed := strings.TrimRightFunc(inner, isSpace)
	closing := "</" + element + ">"
	if !strings.HasSuffix(strings.ToLower(trimmed), strings.ToLower(closing)) {
		return "", fields
	}
	inner = trimmed[:len(trimmed)-len(closing)]

	for len(inner) > 0 {
		loc := openTagRe.FindStringSubmatchIndex(inner)
		if loc == nil {
			break
		}
		key := inner[loc[2]:loc[3]]
		rest := inner[loc[1]:]
		end := strings.Index(rest, "</"+key+">")
		if end < 0 {
			inner = rest
			continue
		}
		fields[key] = decodeValue(rest[:end])
		inner = rest[end+len(key)+3:]
	}
	return element, fields
}

func decodeValue(v string) string {
	switch {
	case strings.HasPrefix(v, "CDATA[[") && strings.HasSuffix(v, "]]") && len(v) >= 9:
		return v[len("CDATA[[") : len(v)-2]
	case strings.HasPrefix(v, "<![CDATA[") && strings.HasSuffix(v, "]]>"):
		return v[len("<![CDATA[") : len(v)-3]
	}
	return entityReplacer.Replace(v)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}
