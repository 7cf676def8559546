package app

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/a-luna/vigorish-sub003/internal/config"
)

const (
	maxTracedQueryLength = 512
	applicationName      = "vigorish"
)

var (
	queryWhitespace = regexp.MustCompile(`\s+`)
	// A row of bound parameters such as ($1, $2, $3).
	valuesTuple = regexp.MustCompile(`\(\$\d+(?:, \$\d+)*\)`)
)

// formatStatusQuery flattens a query for span names. The pitch app inserts
// bind one tuple per appearance, so repeated tuples collapse into a count.
func formatStatusQuery(query string) string {
	query = strings.TrimSpace(queryWhitespace.ReplaceAllString(query, " "))
	if query == "" {
		return query
	}

	if tuples := valuesTuple.FindAllStringIndex(query, -1); len(tuples) > 1 {
		first, last := tuples[0], tuples[len(tuples)-1]
		query = query[:first[1]] + " x" + strconv.Itoa(len(tuples)) + query[last[1]:]
	}

	if len(query) <= maxTracedQueryLength {
		return query
	}
	return query[:maxTracedQueryLength] + "..."
}

// DSN is the database url the services and migrations connect with. URL
// style values get application_name and, when configured, the pq flag that
// keeps results in text format behind poolers.
func DSN(cfg config.Config) string {
	parsed, err := url.Parse(cfg.DBURL)
	if err != nil || parsed.Scheme == "" {
		return cfg.DBURL
	}

	query := parsed.Query()
	if query.Get("application_name") == "" {
		query.Set("application_name", applicationName)
	}
	if cfg.DBDisablePreparedBinary && query.Get("disable_prepared_binary_result") == "" {
		query.Set("disable_prepared_binary_result", "yes")
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// dbName reads the database name from either a URL or a key=value DSN.
func dbName(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if parsed, err := url.Parse(dsn); err == nil && parsed.Scheme != "" {
		return strings.TrimPrefix(parsed.Path, "/")
	}

	for _, token := range strings.Fields(dsn) {
		if name, ok := strings.CutPrefix(token, "dbname="); ok {
			return strings.Trim(name, `"'`)
		}
	}
	return ""
}

// redactDSN hides the password so the url can be logged.
func redactDSN(dsn string) string {
	if parsed, err := url.Parse(dsn); err == nil && parsed.Scheme != "" {
		return parsed.Redacted()
	}
	tokens := strings.Fields(dsn)
	for i, token := range tokens {
		if strings.HasPrefix(token, "password=") {
			tokens[i] = "password=xxxxx"
		}
	}
	return strings.Join(tokens, " ")
}
