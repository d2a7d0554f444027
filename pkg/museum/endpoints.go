package museum

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// SearchEndpoint lists object identifiers for a catalogue query
	SearchEndpoint = "/api/search-entities/OBJECT"

	// EntityEndpoint is the detail endpoint prefix; the object id is appended
	EntityEndpoint = "/api/entity/OBJECT/"
)

// GetSearchURL returns the catalogue search URL
func GetSearchURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + SearchEndpoint
}

// GetEntityURL returns the detail URL for one object
func GetEntityURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + EntityEndpoint + url.PathEscape(id)
}

// GetImageURL resolves an image reference against the base URL and appends
// the size hints. A zero width or height is left out.
func GetImageURL(baseURL, image string, width, height int) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	ref, err := url.Parse(image)
	if err != nil {
		return "", fmt.Errorf("invalid image reference %q: %w", image, err)
	}

	u := base.ResolveReference(ref)
	q := u.Query()
	if width > 0 {
		q.Set("w", strconv.Itoa(width))
	}
	if height > 0 {
		q.Set("h", strconv.Itoa(height))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
