package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding is used when no charset is configured.
const DefaultEncoding = "utf-8"

// Decoder turns byte chunks into text, carrying incomplete multi-byte
// sequences over to the next chunk. Invalid input becomes U+FFFD; Decode
// never fails.
type Decoder struct {
	t     transform.Transformer
	carry []byte
	dst   []byte
}

// NewDecoder returns a Decoder for the named charset (any WHATWG label such
// as "utf-8", "latin1", "utf-16le"). An empty name selects UTF-8.
func NewDecoder(charset string) (*Decoder, error) {
	enc, err := lookupEncoding(charset)
	if err != nil {
		return nil, err
	}
	return &Decoder{
		t:   enc.NewDecoder(),
		dst: make([]byte, 4096),
	}, nil
}

func lookupEncoding(charset string) (encoding.Encoding, error) {
	name := strings.TrimSpace(charset)
	if name == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", charset, err)
	}
	return enc, nil
}

// Decode converts chunk, holding back a trailing partial sequence.
func (d *Decoder) Decode(chunk []byte) string {
	return d.run(chunk, false)
}

// Flush converts whatever is still carried, treating it as final input.
func (d *Decoder) Flush() string {
	out := d.run(nil, true)
	d.t.Reset()
	return out
}

// Pending reports how many bytes are held back for the next chunk.
func (d *Decoder) Pending() int {
	return len(d.carry)
}

func (d *Decoder) run(chunk []byte, atEOF bool) string {
	src := chunk
	if len(d.carry) > 0 {
		src = append(d.carry, chunk...)
	}

	var out strings.Builder
	for {
		nDst, nSrc, err := d.t.Transform(d.dst, src, atEOF)
		out.Write(d.dst[:nDst])
		src = src[nSrc:]

		switch err {
		case nil:
			d.carry = d.carry[:0]
			return out.String()
		case transform.ErrShortDst:
			continue
		case transform.ErrShortSrc:
			// src may alias carry; copy before reusing the backing array.
			d.carry = append(make([]byte, 0, len(src)), src...)
			return out.String()
		default:
			// Skip one byte so decoding resumes on the next boundary.
			out.WriteRune(utf8.RuneError)
			if len(src) == 0 {
				d.carry = d.carry[:0]
				return out.String()
			}
			src = src[1:]
			d.t.Reset()
		}
	}
}
