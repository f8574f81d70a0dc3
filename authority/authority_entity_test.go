package authority_test

import (
	"launchpad/authority"
	"testing"

	. "github.com/onsi/gomega"
)

func TestRoleCapabilities(t *testing.T) {
	RegisterTestingT(t)

	t.Run("only known roles are valid", func(t *testing.T) {
		Expect(authority.RoleVibeCoder.IsValid()).To(BeTrue())
		Expect(authority.RoleDeveloper.IsValid()).To(BeTrue())
		Expect(authority.RoleBoth.IsValid()).To(BeTrue())
		Expect(authority.RoleAdmin.IsValid()).To(BeTrue())
		Expect(authority.Role("").IsValid()).To(BeFalse())
		Expect(authority.Role("superuser").IsValid()).To(BeFalse())
	})

	t.Run("posting launches", func(t *testing.T) {
		Expect(authority.RoleVibeCoder.CanPostLaunches()).To(BeTrue())
		Expect(authority.RoleBoth.CanPostLaunches()).To(BeTrue())
		Expect(authority.RoleAdmin.CanPostLaunches()).To(BeTrue())
		Expect(authority.RoleDeveloper.CanPostLaunches()).To(BeFalse())
		Expect(authority.Role("").CanPostLaunches()).To(BeFalse())
	})

	t.Run("submitting proposals", func(t *testing.T) {
		Expect(authority.RoleDeveloper.CanSubmitProposals()).To(BeTrue())
		Expect(authority.RoleBoth.CanSubmitProposals()).To(BeTrue())
		Expect(authority.RoleAdmin.CanSubmitProposals()).To(BeTrue())
		Expect(authority.RoleVibeCoder.CanSubmitProposals()).To(BeFalse())
		Expect(authority.Role("").CanSubmitProposals()).To(BeFalse())
	})

	t.Run("admin check", func(t *testing.T) {
		Expect(authority.RoleAdmin.IsAdmin()).To(BeTrue())
		Expect(authority.RoleBoth.IsAdmin()).To(BeFalse())
	})
}
