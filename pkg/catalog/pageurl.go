package catalog

import (
	"fmt"
	"net/url"
	"strconv"
)

// PageURL returns the listing URL for one page of a collection
func PageURL(seed, param string, page int) (string, error) {
	u, err := url.Parse(seed)
	if err != nil {
		return "", fmt.Errorf("invalid collection url %q: %w", seed, err)
	}
	q := u.Query()
	q.Set(param, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
