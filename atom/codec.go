package atom

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/GaiaWorld/pi-atom/internal/bufpool"
)

// Atoms serialize transparently as their content: the text forms
// (JSON, encoding.TextMarshaler) carry the plain string, the binary
// form is a uvarint length prefix followed by the UTF-8 payload.
// Decoding always interns, so a decoded atom is deduplicated against
// everything already in the pool and owns one reference.
//
// The Unmarshal methods overwrite the target without releasing any
// reference it may hold; decode into zero atoms.

var (
	errTruncatedPrefix = errors.New("truncated length prefix")
	errPrefixOverflow  = errors.New("length prefix overflows uint64")
	errTrailingData    = errors.New("trailing data after content")
)

// maxDecodeLen bounds the declared content length accepted by the
// decoders, so a corrupted prefix cannot demand an absurd allocation.
const maxDecodeLen = 1 << 30

// MarshalText implements encoding.TextMarshaler.
func (a Atom) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, interning the
// text in the process-wide pool.
func (a *Atom) UnmarshalText(text []byte) error {
	at, err := FromBytes(text)
	if err != nil {
		return err
	}
	*a = at
	return nil
}

// MarshalJSON implements json.Marshaler; an atom serializes as a JSON
// string of its content.
func (a Atom) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON implements json.Unmarshaler, interning the decoded
// string in the process-wide pool.
func (a *Atom) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a = New(s)
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (a Atom) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, binary.MaxVarintLen64+a.Len())
	buf = binary.AppendUvarint(buf, uint64(a.Len()))
	return append(buf, a.String()...), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Failures are
// reported as recoverable *DecodeError values.
func (a *Atom) UnmarshalBinary(data []byte) error {
	n, size := binary.Uvarint(data)
	if size == 0 {
		return decodeErr(0, errTruncatedPrefix)
	}
	if size < 0 {
		return decodeErr(0, errPrefixOverflow)
	}
	if n > maxDecodeLen {
		return decodeErr(0, fmt.Errorf("declared length %d exceeds limit", n))
	}
	rest := data[size:]
	switch {
	case uint64(len(rest)) < n:
		return decodeErr(int64(len(data)), io.ErrUnexpectedEOF)
	case uint64(len(rest)) > n:
		return decodeErr(int64(size)+int64(n), errTrailingData)
	}
	at, err := FromBytes(rest)
	if err != nil {
		return decodeErr(int64(size), err)
	}
	*a = at
	return nil
}

// scratch holds reusable encode buffers shared by all Encoders.
var scratch = bufpool.NewBufferPool()

// Encoder writes a stream of atoms in the binary form to an
// io.Writer. Each Encode call emits one length-prefixed record.
type Encoder struct {
	w io.Writer
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes one atom record. The record is assembled in a pooled
// scratch buffer and written with a single Write call. Records larger
// than the pool's biggest bucket get a one-off buffer of exactly the
// required size, which the pool discards on Put.
func (enc *Encoder) Encode(a Atom) error {
	buf := scratch.Get(binary.MaxVarintLen64 + a.Len())
	b := *buf
	b = binary.AppendUvarint(b, uint64(a.Len()))
	b = append(b, a.String()...)
	_, err := enc.w.Write(b)
	*buf = b
	scratch.Put(buf)
	return err
}

// Decoder reads a stream of atoms in the binary form, interning each
// decoded record. A clean end of stream surfaces as io.EOF; anything
// else mid-record is a *DecodeError.
type Decoder struct {
	r      io.ByteReader
	reader io.Reader
	pool   *Pool
	off    int64
}

// NewDecoder creates a decoder reading from r and interning into the
// process-wide pool. Use Pool.NewDecoder to target a specific pool.
func NewDecoder(r io.Reader) *Decoder {
	return defaultPool.NewDecoder(r)
}

// NewDecoder creates a decoder reading from r and interning into p.
func (p *Pool) NewDecoder(r io.Reader) *Decoder {
	br, ok := r.(interface {
		io.Reader
		io.ByteReader
	})
	if ok {
		return &Decoder{r: br, reader: br, pool: p}
	}
	sr := &singleByteReader{r: r}
	return &Decoder{r: sr, reader: r, pool: p}
}

// Decode reads the next atom record from the stream.
func (d *Decoder) Decode() (Atom, error) {
	n, prefixLen, err := d.readUvarint()
	if err != nil {
		if err == io.EOF && prefixLen == 0 {
			return Atom{}, io.EOF
		}
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Atom{}, decodeErr(d.off, err)
	}
	if n > maxDecodeLen {
		return Atom{}, decodeErr(d.off, fmt.Errorf("declared length %d exceeds limit", n))
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.reader, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Atom{}, decodeErr(d.off, err)
	}
	d.off += int64(prefixLen) + int64(n)
	a, err := d.pool.InternBytes(buf)
	if err != nil {
		return Atom{}, decodeErr(d.off - int64(n), err)
	}
	return a, nil
}

// readUvarint decodes a uvarint from the stream, reporting how many
// prefix bytes it consumed so truncation mid-prefix is distinguishable
// from a clean end of stream.
func (d *Decoder) readUvarint() (value uint64, consumed int, err error) {
	var shift uint
	for {
		c, err := d.r.ReadByte()
		if err != nil {
			return 0, consumed, err
		}
		consumed++
		if shift >= 64 {
			return 0, consumed, errPrefixOverflow
		}
		if c < 0x80 {
			return value | uint64(c)<<shift, consumed, nil
		}
		value |= uint64(c&0x7f) << shift
		shift += 7
	}
}

// singleByteReader adapts a plain io.Reader to io.ByteReader for the
// varint prefix reads.
type singleByteReader struct {
	r   io.Reader
	one [1]byte
}

func (s *singleByteReader) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *singleByteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(s.r, s.one[:]); err != nil {
		return 0, err
	}
	return s.one[0], nil
}
