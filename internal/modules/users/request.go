package users

import (
	"fmt"
	"net/http"
	"strconv"
)

// UserIDHeader carries the acting user's id on API requests.
// Authentication is out of scope; callers are trusted to set it.
const UserIDHeader = "X-User-ID"

// FromRequest resolves the acting user id from request headers.
func FromRequest(r *http.Request) (int64, error) {
	raw := r.Header.Get(UserIDHeader)
	if raw == "" {
		return 0, fmt.Errorf("missing %s header", UserIDHeader)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s header: %q", UserIDHeader, raw)
	}

	return id, nil
}
