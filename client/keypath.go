package client

import (
	"strings"

	"github.com/tidwall/gjson"
)

// narrow returns the raw JSON found at the dot-delimited keyPath inside
// data. Every segment names an object member; arrays are not indexed.
// ok is false when data is not a JSON object or the path does not
// resolve, in which case data is returned unchanged.
func narrow(data []byte, keyPath string) (out []byte, ok bool) {
	if keyPath == "" || !gjson.ValidBytes(data) {
		return data, false
	}

	cur := gjson.ParseBytes(data)
	for _, segment := range strings.Split(keyPath, ".") {
		if !cur.IsObject() {
			return data, false
		}
		cur = cur.Get(gjson.Escape(segment))
		if !cur.Exists() {
			return data, false
		}
	}

	return []byte(cur.Raw), true
}
