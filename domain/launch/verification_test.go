package launch_test

import (
	"launchpad/domain/launch"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
)

func TestIsValidVerificationCode(t *testing.T) {
	RegisterTestingT(t)

	t.Run("accept well formed codes", func(t *testing.T) {
		Expect(launch.IsValidVerificationCode("PV-ABCD")).To(BeTrue())
		Expect(launch.IsValidVerificationCode("PV-Z234")).To(BeTrue())
	})

	t.Run("reject malformed codes", func(t *testing.T) {
		Expect(launch.IsValidVerificationCode("")).To(BeFalse())
		Expect(launch.IsValidVerificationCode("PV-")).To(BeFalse())
		Expect(launch.IsValidVerificationCode("PV-ABC")).To(BeFalse())
		Expect(launch.IsValidVerificationCode("PV-ABCDE")).To(BeFalse())
		Expect(launch.IsValidVerificationCode("pv-abcd")).To(BeFalse())
		// ambiguous characters are not part of the alphabet
		Expect(launch.IsValidVerificationCode("PV-AB0D")).To(BeFalse())
		Expect(launch.IsValidVerificationCode("PV-AB1D")).To(BeFalse())
		Expect(launch.IsValidVerificationCode("PV-ABOD")).To(BeFalse())
		Expect(launch.IsValidVerificationCode("PV-ABID")).To(BeFalse())
		Expect(launch.IsValidVerificationCode("XX-ABCD")).To(BeFalse())
	})
}

func TestGenerateVerificationCode(t *testing.T) {
	RegisterTestingT(t)

	t.Run("generated codes are always well formed", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			code := launch.GenerateVerificationCode()
			Expect(launch.IsValidVerificationCode(code)).To(BeTrue(), code)
			Expect(strings.HasPrefix(code, launch.VerificationCodePrefix)).To(BeTrue())
		}
	})
}
