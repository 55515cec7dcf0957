package cli

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("  hello world \n"), "Title", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Title\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Title", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Title", &out)
	assert.ErrorIs(t, err, io.EOF)
}

func TestGetMultiline(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"stops on empty line", "a\nb\n\nc\n", "a\nb"},
		{"windows newlines", "a\r\nb\r\n\r\n", "a\nb"},
		{"immediate blank", "\n", ""},
		{"eof without blank", "only", "only"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetMultiline(rdr(tt.input), "Description", &out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetList(t *testing.T) {
	var out bytes.Buffer
	got, err := GetList(rdr("a.png, ,b.png ,\n"), "Images", &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, got)

	got, err = GetList(rdr("\n"), "Images", &out)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetTime(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	var out bytes.Buffer

	got, err := GetTime(rdr("2025-03-08 09:30\n"), "Start", &out, loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 8, 7, 30, 0, 0, time.UTC)))
	assert.Contains(t, out.String(), TimeLayout)

	got, err = GetTime(rdr("\n"), "Start", &out, loc)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = GetTime(rdr("tomorrow\n"), "Start", &out, loc)
	assert.ErrorContains(t, err, "bad time")
}

func TestGetConfirmation(t *testing.T) {
	for input, want := range map[string]bool{
		"y\n":    true,
		"YES\n":  true,
		"n\n":    false,
		"\n":     false,
		"sure\n": false,
	} {
		var out bytes.Buffer
		got, err := GetConfirmation(rdr(input), "Sign?", &out)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
		assert.Contains(t, out.String(), "[y/N]")
	}
}

func TestGetPassword(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	readPassword = func(int) ([]byte, error) { return []byte("secret"), nil }
	var out bytes.Buffer
	pw, err := GetPassword(&out, "Passphrase")
	require.NoError(t, err)
	assert.Equal(t, "secret", string(pw))
	assert.True(t, strings.HasPrefix(out.String(), "Passphrase: "))

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = GetPassword(&out, "Passphrase")
	assert.Error(t, err)
}
