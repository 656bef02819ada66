package printer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCodePage(t *testing.T) {
	tests := []struct {
		name      string
		wantName  string
		wantTable byte
		hasTable  bool
	}{
		{"CP437", "CP437", 0, true},
		{"pc850", "CP850", 2, true},
		{"windows-1252", "WPC1252", 16, true},
		{"CP866", "CP866", 17, true},
		{"latin2", "ISO-8859-2", 39, true},
		{"UTF-8", "UTF-8", 0, false},
		{"KOI8-R", "KOI8-R", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp, err := LookupCodePage(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, cp.Name)
			assert.Equal(t, tt.wantTable, cp.Table)
			assert.Equal(t, tt.hasTable, cp.HasTable)
		})
	}

	_, err := LookupCodePage("")
	assert.ErrorIs(t, err, ErrEncoding)
	_, err = LookupCodePage("no-such-page")
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestCodePageEncode(t *testing.T) {
	cp437, err := LookupCodePage("CP437")
	require.NoError(t, err)

	b, err := cp437.Encode("Größe")
	require.NoError(t, err)
	assert.Equal(t, []byte{'G', 'r', 0x94, 0xE1, 'e'}, b)

	_, err = cp437.Encode("€")
	assert.ErrorIs(t, err, ErrEncoding)

	cp866, err := LookupCodePage("CP866")
	require.NoError(t, err)
	b, err = cp866.Encode("Да")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x84, 0xA0}, b)

	utf8, err := LookupCodePage("UTF-8")
	require.NoError(t, err)
	b, err = utf8.Encode("€")
	require.NoError(t, err)
	assert.Equal(t, []byte("€"), b)
}
