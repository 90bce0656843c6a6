package http

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildURL joins an absolute base URL with an already escaped path and
// the given query parameters.
func BuildURL(baseURL, path string, queryParams map[string]string) (string, error) {
	// Parse the base URL
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("error parsing base URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	// Append the path, keeping any prefix the base URL already carries.
	// RawPath keeps sub-delimiters such as ":(" readable.
	rawPath := strings.TrimRight(parsedURL.EscapedPath(), "/") + path
	decoded, err := url.PathUnescape(rawPath)
	if err != nil {
		return "", fmt.Errorf("error decoding path %q: %w", rawPath, err)
	}
	parsedURL.Path = decoded
	parsedURL.RawPath = rawPath

	// Set query parameters dynamically
	q := url.Values{}
	for key, value := range queryParams {
		q.Set(key, value)
	}
	parsedURL.RawQuery = q.Encode()

	// Return the full URL as a string
	return parsedURL.String(), nil
}
