//go:build !windows

package p4

import (
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// Mocked out for unit testing.
var getenv = os.Getenv

// preferredEncoding returns the codeset of the current locale, such as
// ISO-8859-1 for `de_DE.ISO-8859-1`. It returns nil for UTF-8 and for
// locales without a codeset.
func preferredEncoding() encoding.Encoding {
	var locale string
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if locale = getenv(key); locale != "" {
			break
		}
	}

	i := strings.IndexByte(locale, '.')
	if i < 0 {
		return nil
	}
	codeset := locale[i+1:]
	if j := strings.IndexByte(codeset, '@'); j >= 0 {
		codeset = codeset[:j]
	}

	enc, err := lookupCharset(codeset)
	if err != nil || enc == unicode.UTF8 {
		return nil
	}
	return enc
}
