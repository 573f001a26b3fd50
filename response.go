package webcache

import (
	"github.com/iTrooz/webcache/internal/record"
	"github.com/iTrooz/webcache/transport"
)

// Response is the outcome of one fetch attempt. It is never modified after construction.
//
// Success means usable content: an HTTP error status is reported through
// ErrorMessage even though the remote answered.
type Response struct {
	content []byte
	err     string
	baseURI string
	code    int
}

// NewResponse builds a Response from a raw transport result.
// For error statuses both content and error are set to the status text.
func NewResponse(res *transport.Result) *Response {
	r := &Response{
		baseURI: res.BaseURI,
		code:    res.StatusCode,
	}
	if res.OK() {
		r.content = res.Body
	} else {
		r.err = res.Status
		r.content = []byte(res.Status)
	}
	return r
}

// ErrorResponse builds the Response of a request that never received a status line
func ErrorResponse(msg, baseURI string) *Response {
	return ResponseFromFields([]byte(msg), msg, baseURI, 0)
}

// ResponseFromFields copies the given fields verbatim.
// An empty errMsg and a zero code mean absent.
func ResponseFromFields(content []byte, errMsg, baseURI string, code int) *Response {
	return &Response{
		content: content,
		err:     errMsg,
		baseURI: baseURI,
		code:    code,
	}
}

func (r *Response) Content() []byte { return r.content }

// ErrorMessage returns the failure message, or "" on success
func (r *Response) ErrorMessage() string { return r.err }

// BaseURI returns the URI the response came from, after redirects
func (r *Response) BaseURI() string { return r.baseURI }

// Code returns the HTTP status, or 0 when no status line was received
func (r *Response) Code() int { return r.code }

func (r *Response) Success() bool { return r.err == "" }

func (r *Response) String() string { return string(r.content) }

func (r *Response) entry() record.Entry {
	return record.Entry{
		BaseURI: r.baseURI,
		Code:    r.code,
		Error:   r.err,
		Content: r.content,
	}
}

func responseFromEntry(e record.Entry) *Response {
	return ResponseFromFields(e.Content, e.Error, e.BaseURI, e.Code)
}

// Marshal encodes r in the versioned cache record format
func (r *Response) Marshal(compress bool) ([]byte, error) {
	return record.Encode(r.entry(), compress)
}

// UnmarshalResponse decodes a cache record produced by Marshal
func UnmarshalResponse(data []byte) (*Response, error) {
	e, err := record.Decode(data)
	if err != nil {
		return nil, err
	}
	return responseFromEntry(e), nil
}
