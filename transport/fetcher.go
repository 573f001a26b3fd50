// Fetches remote resources on behalf of the cache
package transport

// Fetcher performs a single GET request.
// A returned error means no status line was received (DNS failure, refused
// connection, malformed URL, timeout); HTTP error statuses are not errors.
type Fetcher interface {
	Fetch(url string, auth Auth) (*Result, error)
}

// Result is the raw outcome of a request that produced a status line
type Result struct {
	// BaseURI is the final URL after redirects
	BaseURI    string
	StatusCode int

	// Status is the status text, e.g. "404 Not Found"
	Status string
	Body   []byte
}

// OK reports whether the status is in the 2xx or 3xx class
func (r *Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 400
}
