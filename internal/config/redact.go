package config

import (
	"net/url"
	"regexp"
	"strings"
)

const redacted = "***"

// keywordPassword matches password=... in a keyword/value connection string,
// quoted or not.
//
//nolint:gochecknoglobals // compiled once
var keywordPassword = regexp.MustCompile(`(?i)(\bpassword\s*=\s*)('(?:[^'\\]|\\.)*'|\S+)`)

// RedactDSN hides the password in a connection string before it is printed.
// Both postgres:// URLs and host=... keyword strings are understood; anything
// else comes back unchanged.
func RedactDSN(dsn string) string {
	if dsn == "" {
		return ""
	}

	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), redacted)

			// UserPassword escapes the asterisks.
			return strings.Replace(u.String(), ":%2A%2A%2A@", ":"+redacted+"@", 1)
		}

		return dsn
	}

	return keywordPassword.ReplaceAllString(dsn, "${1}"+redacted)
}
