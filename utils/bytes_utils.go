package utils

import (
	"encoding/hex"
)

func BytesToHex(bytes []byte) string {
	return hex.EncodeToString(bytes)
}

func HexToBytes(str string) ([]byte, error) {
	bytes, err := hex.DecodeString(str)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

// ShortenHex renders long hex ids as "abc...xyz" for log lines and graphs.
func ShortenHex(s string) string {
	if len(s) < 9 {
		return s
	}
	return s[0:3] + "..." + s[len(s)-3:]
}
