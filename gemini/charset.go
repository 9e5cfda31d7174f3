package gemini

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// ErrUnsupportedCharset is returned for charset parameters that have no
// known decoder.
var ErrUnsupportedCharset = errors.New("unsupported character set")

// MediaType splits a meta field into its lower-cased media type and
// parameters. An empty meta yields text/gemini.
func MediaType(meta string) (string, map[string]string) {
	if strings.TrimSpace(meta) == "" {
		meta = DefaultMIME
	}
	mt, params, err := mime.ParseMediaType(meta)
	if err != nil {
		// Servers send all sorts of junk in the parameters; keep the type.
		mt = strings.ToLower(strings.TrimSpace(strings.SplitN(meta, ";", 2)[0]))
		params = map[string]string{}
	}
	return mt, params
}

// Decode wraps body in a decoder for the charset named in meta. Bodies
// without a charset are UTF-8.
func Decode(meta string, body io.Reader) (io.Reader, error) {
	_, params := MediaType(meta)
	cs := strings.ToLower(params["charset"])
	switch cs {
	case "", "utf-8", "utf8", "us-ascii":
		return body, nil
	}

	enc, err := ianaindex.MIME.Encoding(cs)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCharset, cs)
	}
	return transform.NewReader(body, enc.NewDecoder()), nil
}
