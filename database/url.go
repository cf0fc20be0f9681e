package database

import (
	"fmt"
	"strings"
)

// ConstructDatabaseURL joins a base server URL with a database name.
// An empty name returns the base URL untouched. When a name is given,
// sslmode=disable is added unless the URL already sets sslmode.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	base, query, hasQuery := strings.Cut(strings.TrimRight(baseURL, "/"), "?")
	base = strings.TrimRight(base, "/")

	databaseURL := fmt.Sprintf("%s/%s", base, databaseName)
	if hasQuery && query != "" {
		databaseURL = fmt.Sprintf("%s?%s", databaseURL, query)
	}

	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "&"
		if !strings.Contains(databaseURL, "?") {
			separator = "?"
		}
		databaseURL = fmt.Sprintf("%s%ssslmode=disable", databaseURL, separator)
	}

	return databaseURL
}
