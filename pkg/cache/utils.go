package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ResponseKey builds "<prefix>:<endpoint>:<generation>:<digest>" where digest is a
// short hash of the request parameters. Keys of one generation share the
// "<prefix>:<endpoint>:<generation>:" prefix.
func ResponseKey(prefix, endpoint string, generation uint64, params ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte(':')
	b.WriteString(endpoint)
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(generation, 10))
	b.WriteByte(':')
	b.WriteString(paramDigest(params))
	return b.String()
}

// paramDigest hashes the JSON encoding of params so element boundaries survive:
// ["a","b"] and ["a b"] never share a digest.
func paramDigest(params []interface{}) string {
	raw, err := json.Marshal(params)
	if err != nil {
		raw = []byte(fmt.Sprintf("%#v", params))
	}
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:])[:16]
}

// BuildPattern creates a Redis pattern for key matching.
func BuildPattern(prefix string) string {
	return prefix + "*"
}

// matchPattern supports the trailing-star patterns produced by BuildPattern.
func matchPattern(pattern, key string) bool {
	if p, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(key, p)
	}
	return pattern == key
}
