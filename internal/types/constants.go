package types

import "strings"

const ContextUserKey = "user"

const ContextRequestIDKey = "request_id"

var (
	// Default allowed origins for development
	defaultOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}
)

// AllowedOrigins returns the development origins followed by every non-empty
// entry of extra. Entries may themselves be comma separated lists.
func AllowedOrigins(extra ...string) []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	for _, value := range extra {
		for _, origin := range strings.Split(value, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" && !contains(origins, trimmed) {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
