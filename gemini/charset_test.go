package gemini

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestMediaType(t *testing.T) {
	tests := []struct {
		meta, mt, charset string
	}{
		{"", "text/gemini", "utf-8"},
		{"text/plain", "text/plain", ""},
		{"text/gemini; charset=ISO-8859-1; lang=en", "text/gemini", "ISO-8859-1"},
		{"Text/Plain;;junk", "text/plain", ""},
	}
	for _, tt := range tests {
		mt, params := MediaType(tt.meta)
		if mt != tt.mt || params["charset"] != tt.charset {
			t.Errorf("MediaType(%q) = %q %v, want %q charset=%q", tt.meta, mt, params, tt.mt, tt.charset)
		}
	}
}

func TestDecodeLatin1(t *testing.T) {
	r, err := Decode("text/plain; charset=iso-8859-1", strings.NewReader("caf\xe9"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "café" {
		t.Errorf("got %q", b)
	}
}

func TestDecodeUTF8PassThrough(t *testing.T) {
	src := strings.NewReader("héllo")
	r, err := Decode("text/gemini", src)
	if err != nil {
		t.Fatal(err)
	}
	if r != src {
		t.Error("expected the body reader back unchanged")
	}
}

func TestDecodeUnsupported(t *testing.T) {
	_, err := Decode("text/plain; charset=x-klingon", strings.NewReader(""))
	if !errors.Is(err, ErrUnsupportedCharset) {
		t.Errorf("err = %v", err)
	}
}
