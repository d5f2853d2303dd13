package charset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// "AÑO" in latin-1: Ñ is the single byte 0xD1.
var latin1Year = []byte{'A', 0xD1, 'O'}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Encoding
		wantErr bool
	}{
		{in: "utf-8", want: UTF8},
		{in: "UTF8", want: UTF8},
		{in: "latin-1", want: Latin1},
		{in: "ISO-8859-1", want: Latin1},
		{in: "cp1252", want: Windows1252},
		{in: "ebcdic", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	list, err := ParseList([]string{"utf-8", "latin-1"})
	require.NoError(t, err)
	assert.Equal(t, []Encoding{UTF8, Latin1}, list)
}

func TestDecode_UTF8IsStrict(t *testing.T) {
	_, err := UTF8.Decode(latin1Year)
	assert.Error(t, err)

	out, err := UTF8.Decode([]byte("AÑO"))
	require.NoError(t, err)
	assert.Equal(t, "AÑO", string(out))
}

func TestDecode_StripsBOM(t *testing.T) {
	out, err := UTF8.Decode(append([]byte{0xEF, 0xBB, 0xBF}, "ID,NIVEL"...))
	require.NoError(t, err)
	assert.Equal(t, "ID,NIVEL", string(out))
}

func TestDecode_Latin1(t *testing.T) {
	out, err := Latin1.Decode(latin1Year)
	require.NoError(t, err)
	assert.Equal(t, "AÑO", string(out))
}

func TestDecodeFirst_FallsBackInOrder(t *testing.T) {
	out, used, err := DecodeFirst(latin1Year, []Encoding{UTF8, Latin1})
	require.NoError(t, err)
	assert.Equal(t, Latin1, used)
	assert.Equal(t, "AÑO", string(out))

	out, used, err = DecodeFirst([]byte("AÑO"), []Encoding{UTF8, Latin1})
	require.NoError(t, err)
	assert.Equal(t, UTF8, used)
	assert.Equal(t, "AÑO", string(out))
}

func TestDecodeFirst_ExhaustedList(t *testing.T) {
	_, _, err := DecodeFirst(latin1Year, []Encoding{UTF8})
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.Len(t, decodeErr.Attempts, 1)
	assert.Equal(t, UTF8, decodeErr.Attempts[0].Encoding)
	assert.Contains(t, err.Error(), "utf-8")

	_, _, err = DecodeFirst(latin1Year, nil)
	assert.EqualError(t, err, "no encodings configured")
}

func TestEncode(t *testing.T) {
	out, err := Latin1.Encode([]byte("AÑO"))
	require.NoError(t, err)
	assert.Equal(t, latin1Year, out)

	_, err = Latin1.Encode([]byte("price €"))
	assert.Error(t, err, "euro sign is not in latin-1")

	out, err = Windows1252.Encode([]byte("€"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80}, out)

	out, err = UTF8.Encode([]byte("AÑO"))
	require.NoError(t, err)
	assert.Equal(t, "AÑO", string(out))
}
