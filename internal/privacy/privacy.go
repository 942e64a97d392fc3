// Package privacy scrubs host and user identifying details from messages
// before they leave the machine as telemetry.
package privacy

import (
	"crypto/sha256"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	urlPattern = regexp.MustCompile(`\b(?:https?|ftp)://\S+`)

	// absolute paths below a user's home directory, unix or windows style
	homePathPattern = regexp.MustCompile(`(?:/home/|/Users/|[A-Za-z]:\\Users\\)[^\s"':]+`)
)

// ScrubMessage anonymizes URLs and home directory paths found in message.
func ScrubMessage(message string) string {
	message = urlPattern.ReplaceAllStringFunc(message, AnonymizeURL)
	return homePathPattern.ReplaceAllStringFunc(message, anonymizeHomePath)
}

// AnonymizeURL replaces a URL with its scheme, a host category and a short
// hash of the full value, so equal URLs still group together in reports.
func AnonymizeURL(rawURL string) string {
	hash := sha256.Sum256([]byte(rawURL))

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" {
		return fmt.Sprintf("url-%x", hash[:8])
	}
	return fmt.Sprintf("url-%s-%s-%x", parsed.Scheme, categorizeHost(parsed.Hostname()), hash[:8])
}

// anonymizeHomePath keeps the file name, which is usually what matters when
// debugging a failed image or model load.
func anonymizeHomePath(path string) string {
	path = strings.TrimRight(path, ".,;)")
	base := filepath.Base(strings.ReplaceAll(path, `\`, "/"))
	return "~/.../" + base
}

func categorizeHost(host string) string {
	switch {
	case host == "":
		return "no-host"
	case host == "localhost":
		return "localhost"
	}

	ip := net.ParseIP(host)
	switch {
	case ip == nil:
		return "domain"
	case ip.IsLoopback():
		return "localhost"
	case ip.IsPrivate():
		return "private-ip"
	default:
		return "public-ip"
	}
}
