package keygen

import (
	"crypto/rand"
	"math/big"
)

const (
	// no 0, O, 1 or I
	referralCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// ReferralCodeLength is the length of generated referral codes
	ReferralCodeLength = 8
)

// GenerateReferralCode returns a random uppercase referral code
func GenerateReferralCode() (string, error) {
	return randomString(ReferralCodeLength, referralCharset)
}

// randomString generates a random string of given length from the given charset
func randomString(length int, charset string) (string, error) {
	result := make([]byte, length)
	charsetLen := big.NewInt(int64(len(charset)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}

	return string(result), nil
}
