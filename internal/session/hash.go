package session

import (
	"strconv"
	"unicode/utf16"
)

// HashPassword computes the legacy 32-bit string checksum stored as a
// user's password hash: h = h*31 + c over UTF-16 code units with int32
// wraparound, rendered in decimal. It is a compatibility format for
// snapshots exchanged between instances and offers no protection.
func HashPassword(password string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(password)) {
		h = h*31 + int32(c)
	}
	return strconv.FormatInt(int64(h), 10)
}
