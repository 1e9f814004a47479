package atom

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRoundTrip(t *testing.T) {
	a := New("serialize-me")
	defer a.Release()

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, `"serialize-me"`, string(data))

	var back Atom
	require.NoError(t, json.Unmarshal(data, &back))
	defer back.Release()

	assert.True(t, back.Equal(a))
	assert.Equal(t, a, back, "decoding must intern into the same entry")
}

func TestJSONInsideStruct(t *testing.T) {
	type record struct {
		Name  Atom `json:"name"`
		Count int  `json:"count"`
	}

	in := record{Name: New("widget"), Count: 3}
	defer in.Name.Release()

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"widget","count":3}`, string(data))

	var out record
	require.NoError(t, json.Unmarshal(data, &out))
	defer out.Name.Release()
	assert.Equal(t, in.Name, out.Name)
}

func TestJSONUnmarshalWrongType(t *testing.T) {
	var a Atom
	err := json.Unmarshal([]byte(`42`), &a)
	require.Error(t, err)
	assert.True(t, a.IsZero())
}

func TestTextRoundTrip(t *testing.T) {
	a := New("text-form")
	defer a.Release()

	data, err := a.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "text-form", string(data))

	var back Atom
	require.NoError(t, back.UnmarshalText(data))
	defer back.Release()
	assert.Equal(t, a, back)
}

func TestTextUnmarshalInvalidUTF8(t *testing.T) {
	var a Atom
	err := a.UnmarshalText([]byte{0xc0, 0x80})
	require.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestBinaryRoundTrip(t *testing.T) {
	for _, content := range []string{"", "a", "binary-payload", strings.Repeat("x", 300)} {
		a := New(content)

		data, err := a.MarshalBinary()
		require.NoError(t, err)

		var back Atom
		require.NoError(t, back.UnmarshalBinary(data))
		assert.Equal(t, a, back, "content %q", content)

		back.Release()
		a.Release()
	}
}

func TestBinaryDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty input", nil},
		{"truncated content", []byte{5, 'a', 'b'}},
		{"trailing data", []byte{1, 'a', 'b'}},
		{"invalid utf8", []byte{2, 0xff, 0xfe}},
		{"absurd length", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Atom
			err := a.UnmarshalBinary(tt.data)
			require.Error(t, err)
			var de *DecodeError
			assert.ErrorAs(t, err, &de, "decode failures must be recoverable DecodeErrors")
			assert.True(t, a.IsZero(), "failed decode must not produce an atom")
		})
	}
}

func TestStreamCodec(t *testing.T) {
	p := NewPool()
	contents := []string{"one", "two", "two", "three", ""}

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, c := range contents {
		a := p.Intern(c)
		require.NoError(t, enc.Encode(a))
		a.Release()
	}

	dec := p.NewDecoder(&buf)
	var got []Atom
	for {
		a, err := dec.Decode()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, a)
	}

	require.Len(t, got, len(contents))
	for i, c := range contents {
		assert.Equal(t, c, got[i].String())
	}
	// Duplicate records intern to the same entry.
	assert.Equal(t, got[1], got[2])

	for i := range got {
		got[i].Release()
	}
	assert.Equal(t, 0, p.Len())
}

func TestStreamCodecLargeRecord(t *testing.T) {
	// Payload well past the scratch pool's largest bucket: the record
	// must round-trip intact through a one-off buffer.
	p := NewPool()
	content := strings.Repeat("y", 10000)

	a := p.Intern(content)
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(a))

	got, err := p.NewDecoder(&buf).Decode()
	require.NoError(t, err)
	assert.Equal(t, a, got)
	assert.Equal(t, len(content), got.Len())

	got.Release()
	a.Release()
	assert.Equal(t, 0, p.Len())
}

func TestStreamDecoderPlainReader(t *testing.T) {
	// A reader without ReadByte goes through the adapter path.
	a := New("adapted")
	defer a.Release()

	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(a))

	dec := NewDecoder(onlyReader{&buf})
	got, err := dec.Decode()
	require.NoError(t, err)
	defer got.Release()
	assert.Equal(t, a, got)

	_, err = dec.Decode()
	assert.Equal(t, io.EOF, err)
}

func TestStreamDecoderTruncated(t *testing.T) {
	a := New("cut-short")
	defer a.Release()

	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(a))
	data := buf.Bytes()[:buf.Len()-2]

	dec := NewDecoder(bytes.NewReader(data))
	_, err := dec.Decode()
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, de.Err, io.ErrUnexpectedEOF)
}

func TestStreamDecoderOffsets(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, c := range []string{"aa", "bb"} {
		a := New(c)
		require.NoError(t, enc.Encode(a))
		a.Release()
	}
	// Corrupt the second record's payload with invalid UTF-8.
	data := buf.Bytes()
	data[len(data)-1] = 0xff
	data[len(data)-2] = 0xff

	dec := NewDecoder(bytes.NewReader(data))
	first, err := dec.Decode()
	require.NoError(t, err)
	first.Release()

	_, err = dec.Decode()
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, de.Err, ErrInvalidUTF8)
	assert.Equal(t, int64(4), de.Offset, "offset should point at the failed record's payload")
}

// onlyReader hides every interface except io.Reader.
type onlyReader struct {
	r io.Reader
}

func (o onlyReader) Read(p []byte) (int, error) {
	return o.r.Read(p)
}
