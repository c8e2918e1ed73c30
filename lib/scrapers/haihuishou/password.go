package haihuishou

import (
	"crypto/md5"
	"encoding/hex"
)

// HashPassword converts a plaintext password to the digest the login
// endpoint expects: 32 lowercase hex characters over the UTF-8
// password bytes. An input that already is such a digest passes
// through unchanged.
func HashPassword(password string) string {
	if isHexDigest(password) {
		return password
	}
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

func isHexDigest(s string) bool {
	if len(s) != 32 {
		return false
	}
	for _, c := range []byte(s) {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
