package webcache

import (
	"crypto/md5"
	"encoding/hex"
)

// Key returns the storage key of url: the lowercase hex MD5 digest of the
// exact string. No normalization is applied.
func Key(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}
