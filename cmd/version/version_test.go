package versioncmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	versioncmder "github.com/papercomputeco/langchat/cmd/version"
	"github.com/papercomputeco/langchat/pkg/utils"
)

var _ = Describe("NewVersionCmd", func() {
	It("prints the build variables", func() {
		origVersion := utils.Version
		DeferCleanup(func() { utils.Version = origVersion })
		utils.Version = "v1.2.3"

		var out bytes.Buffer
		cmd := versioncmder.NewVersionCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{})
		Expect(cmd.Execute()).To(Succeed())

		Expect(out.String()).To(Equal("Version: v1.2.3\nSha: HEAD\nBuilt at: dev\n"))
	})
})
