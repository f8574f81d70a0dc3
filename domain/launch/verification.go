package launch

import (
	"crypto/rand"
	"regexp"
)

// VerificationAlphabet excludes the ambiguous characters 0/O/1/I so the code
// survives being written down next to the showcased app.
const VerificationAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const VerificationCodePrefix = "PV-"

var verificationCodePattern = regexp.MustCompile(`^PV-[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{4}$`)

func IsValidVerificationCode(code string) bool {
	return verificationCodePattern.MatchString(code)
}

// GenerateVerificationCode builds a fresh PV- code. Codes are per-submission
// proof tokens, global uniqueness is intentionally not enforced.
func GenerateVerificationCode() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	code := make([]byte, 4)
	for i, b := range buf {
		code[i] = VerificationAlphabet[int(b)%len(VerificationAlphabet)]
	}
	return VerificationCodePrefix + string(code)
}
