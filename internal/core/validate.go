package core

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const maxURLLength = 2048

var ipv4Re = regexp.MustCompile(`^\d{1,3}(?:\.\d{1,3}){3}$`)

// ValidURL accepts "scheme://host/..." as well as bare "host/path".
// The host must be localhost, a dotted IPv4 address, or a name with a TLD of two or more characters.
func ValidURL(raw string) bool {
	if raw == "" || len(raw) > maxURLLength || strings.ContainsAny(raw, " \t\r\n") {
		return false
	}
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil || u.Hostname() == "" {
			return false
		}
		return validHost(u.Hostname())
	}
	host := raw
	if i := strings.IndexByte(raw, '/'); i >= 0 {
		host = raw[:i]
	}
	if host == "" {
		return false
	}
	return validHost(host)
}

func validHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	if ipv4Re.MatchString(host) {
		for _, p := range strings.Split(host, ".") {
			if v, err := strconv.Atoi(p); err != nil || v > 255 {
				return false
			}
		}
		return true
	}
	i := strings.LastIndexByte(host, '.')
	if i < 0 {
		return false
	}
	return len(host)-i-1 >= 2
}

// RedirectTarget returns raw with https:// prepended when it carries no scheme.
func RedirectTarget(raw string) string {
	if strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}
