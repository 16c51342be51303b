package transfer

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/dmitrijs2005/gophdrive/internal/common"
)

// maxRecordSize bounds one framed record. A full chunk of incompressible
// data is well under 128 KiB once base64 encoded.
const maxRecordSize = 1 << 20

// recordReader yields chunk records from a download body. Next returns
// io.EOF after the last complete record.
type recordReader interface {
	Next() (*EncryptedChunk, error)
}

// newRecordReader picks the framing announced by contentType. Anything
// other than the length-prefixed type is read as concatenated JSON.
func newRecordReader(r io.Reader, contentType string) recordReader {
	mt, _, _ := mime.ParseMediaType(contentType)
	if strings.EqualFold(mt, common.FramedStreamContentType) {
		return &framedReader{r: r}
	}
	return &jsonReader{dec: json.NewDecoder(r)}
}

// jsonReader reads back-to-back JSON objects. The decoder tokenizes
// incrementally, so records may be split across reads arbitrarily and
// braces inside strings are handled.
type jsonReader struct {
	dec *json.Decoder
}

func (j *jsonReader) Next() (*EncryptedChunk, error) {
	var w wireChunk
	err := j.dec.Decode(&w)
	switch {
	case err == nil:
		return w.toChunk()
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, fmt.Errorf("%w: partial record at end of stream", ErrTruncatedStream)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return nil, fmt.Errorf("read record: %w", err)
}

// framedReader reads records prefixed by a 4-byte big-endian length.
type framedReader struct {
	r   io.Reader
	hdr [4]byte
}

func (f *framedReader) Next() (*EncryptedChunk, error) {
	if _, err := io.ReadFull(f.r, f.hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, framedReadErr(err)
	}

	n := binary.BigEndian.Uint32(f.hdr[:])
	if n == 0 || n > maxRecordSize {
		return nil, malformed("record length %d out of range", n)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(f.r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, framedReadErr(err)
	}
	return ParseChunk(buf)
}

func framedReadErr(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: partial record at end of stream", ErrTruncatedStream)
	}
	return fmt.Errorf("read record: %w", err)
}

// WriteFramedRecord writes c with a 4-byte big-endian length prefix.
func WriteFramedRecord(w io.Writer, c *EncryptedChunk) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(data)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteJSONRecord writes c as one newline-terminated JSON object.
func WriteJSONRecord(w io.Writer, c *EncryptedChunk) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
