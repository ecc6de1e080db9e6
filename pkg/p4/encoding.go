package p4

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/sidkik/p4workspace/pkg/errors"
)

// NewDecoder returns the decoder for the raw bytes sent by the server. It
// returns nil if the output is already UTF-8.
//
// Servers in unicode mode always send UTF-8. Other servers send file names
// the way clients submitted them, which is usually the platform's preferred
// encoding. `charset` overrides the platform default.
func NewDecoder(unicodeServer bool, charset string) (*encoding.Decoder, error) {
	if unicodeServer {
		return nil, nil
	}

	var enc encoding.Encoding
	if charset != "" {
		var err error
		enc, err = lookupCharset(charset)
		if err != nil || enc == nil {
			return nil, errors.NewConfigurationError("unknown charset %q", charset)
		}
	} else {
		enc = preferredEncoding()
	}

	if enc == nil || enc == unicode.UTF8 {
		return nil, nil
	}
	return enc.NewDecoder(), nil
}

func lookupCharset(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.Replace(name, "-", "", -1)) {
	case "utf8", "utf8unchecked":
		return unicode.UTF8, nil
	}
	return ianaindex.IANA.Encoding(name)
}
