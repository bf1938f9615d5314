package config_test

import (
	jsoniter "github.com/json-iterator/go"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/tileflow/streamcore/config"
)

var _ = Describe("Owner marshal and update", func() {
	var owner *config.Owner

	BeforeEach(func() {
		owner = config.NewOwner(config.Default())
	})

	It("round-trips the published snapshot through MarshalSnapshot", func() {
		data, err := owner.MarshalSnapshot()
		Expect(err).NotTo(HaveOccurred())

		var decoded config.Config
		Expect(jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &decoded)).To(Succeed())
		Expect(decoded).To(Equal(owner.Get()))
	})

	for _, mode := range []config.StreamingMode{config.ModeMinimumImpact, config.ModeBounded, config.ModeHurried} {
		mode := mode
		It("accepts streaming mode "+string(mode), func() {
			next := owner.Get()
			next.StreamingMode = mode
			Expect(owner.Update(next)).To(Succeed())
			Expect(owner.Get().StreamingMode).To(Equal(mode))
		})
	}

	It("rejects an update with an invalid screen-space-error and leaves the prior snapshot published", func() {
		before := owner.Get()
		next := before
		next.MaximumScreenSpaceError = 0
		Expect(owner.Update(next)).To(HaveOccurred())
		Expect(owner.Get()).To(Equal(before))
	})
})
