package fetch

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
)

const defaultMediaType = "application/octet-stream"

// EncodeDataURL returns data as a base64 data URL
func EncodeDataURL(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = defaultMediaType
	}
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mediaType) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mediaType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// DecodeDataURL reverses EncodeDataURL. Percent-encoded (non-base64) data
// URLs are accepted too.
func DecodeDataURL(s string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, &Error{Kind: KindEncoding, Err: errors.New("not a data URL")}
	}
	header, body, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, &Error{Kind: KindEncoding, Err: errors.New("data URL has no payload")}
	}

	header, isBase64 := strings.CutSuffix(header, ";base64")
	mediaType = header
	if mediaType == "" {
		mediaType = "text/plain;charset=US-ASCII"
	}

	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(body)
		if err != nil {
			return "", nil, &Error{Kind: KindEncoding, Err: err}
		}
		return mediaType, data, nil
	}

	unescaped, err := url.PathUnescape(body)
	if err != nil {
		return "", nil, &Error{Kind: KindEncoding, Err: err}
	}
	return mediaType, []byte(unescaped), nil
}
