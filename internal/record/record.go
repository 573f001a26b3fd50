// Encodes cached responses into a versioned, self-describing record
package record

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const (
	PREFIX  = "---WEBCACHE-RECORD---\n"
	Version = 1

	encodingIdentity = "identity"
	encodingZstd     = "zstd"
)

// ErrInvalidRecord is wrapped by every decoding failure
var ErrInvalidRecord = errors.New("invalid cache record")

// Entry holds the fields of a stored response.
// Empty Error and zero Code mean absent.
type Entry struct {
	BaseURI string
	Code    int
	Error   string
	Content []byte
}

var (
	zstdEncoder = sync.OnceValues(func() (*zstd.Encoder, error) { return zstd.NewWriter(nil) })
	zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) { return zstd.NewReader(nil) })
)

// Encode serializes e, compressing the content with zstd when compress is set
func Encode(e Entry, compress bool) ([]byte, error) {
	content := e.Content
	encoding := encodingIdentity
	if compress {
		encoder, err := zstdEncoder()
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		content = encoder.EncodeAll(e.Content, nil)
		encoding = encodingZstd
	}

	var buf bytes.Buffer
	buf.WriteString(PREFIX)
	fmt.Fprintf(&buf, "Version: %d\n", Version)
	fmt.Fprintf(&buf, "Base-Uri: %s\n", strconv.Quote(e.BaseURI))
	if e.Code != 0 {
		fmt.Fprintf(&buf, "Code: %d\n", e.Code)
	}
	if e.Error != "" {
		fmt.Fprintf(&buf, "Error: %s\n", strconv.Quote(e.Error))
	}
	fmt.Fprintf(&buf, "Content-Encoding: %s\n", encoding)
	fmt.Fprintf(&buf, "Content-Length: %d\n", len(content))
	buf.WriteString("\n")
	buf.Write(content)

	return buf.Bytes(), nil
}

// Decode parses a record produced by Encode
func Decode(b []byte) (Entry, error) {
	var e Entry

	if !bytes.HasPrefix(b, []byte(PREFIX)) {
		n := min(len(b), len(PREFIX))
		return e, fmt.Errorf("%w: expected prefix %q, got %q", ErrInvalidRecord, PREFIX, b[:n])
	}

	reader := bufio.NewReader(bytes.NewReader(b[len(PREFIX):]))
	header, err := textproto.NewReader(reader).ReadMIMEHeader()
	if err != nil {
		return e, fmt.Errorf("%w: reading header: %v", ErrInvalidRecord, err)
	}

	version, err := strconv.Atoi(header.Get("Version"))
	if err != nil || version != Version {
		return e, fmt.Errorf("%w: unsupported version %q", ErrInvalidRecord, header.Get("Version"))
	}

	if e.BaseURI, err = strconv.Unquote(header.Get("Base-Uri")); err != nil {
		return e, fmt.Errorf("%w: base uri: %v", ErrInvalidRecord, err)
	}
	if raw := header.Get("Code"); raw != "" {
		if e.Code, err = strconv.Atoi(raw); err != nil {
			return e, fmt.Errorf("%w: code: %v", ErrInvalidRecord, err)
		}
	}
	if raw := header.Get("Error"); raw != "" {
		if e.Error, err = strconv.Unquote(raw); err != nil {
			return e, fmt.Errorf("%w: error: %v", ErrInvalidRecord, err)
		}
	}

	length, err := strconv.Atoi(header.Get("Content-Length"))
	if err != nil || length < 0 {
		return e, fmt.Errorf("%w: content length %q", ErrInvalidRecord, header.Get("Content-Length"))
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return e, fmt.Errorf("%w: reading content: %v", ErrInvalidRecord, err)
	}
	if len(content) != length {
		return e, fmt.Errorf("%w: content length %d, got %d bytes", ErrInvalidRecord, length, len(content))
	}

	switch encoding := header.Get("Content-Encoding"); encoding {
	case encodingIdentity, "":
		e.Content = content
	case encodingZstd:
		decoder, err := zstdDecoder()
		if err != nil {
			return e, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		if e.Content, err = decoder.DecodeAll(content, nil); err != nil {
			return e, fmt.Errorf("%w: zstd: %v", ErrInvalidRecord, err)
		}
	default:
		return e, fmt.Errorf("%w: unknown content encoding %q", ErrInvalidRecord, encoding)
	}

	return e, nil
}
