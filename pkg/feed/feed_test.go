package feed_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scrollpedia/scrollfeed/pkg/feed"
)

var _ = Describe("Article", func() {
	Describe("HasAnyTag", func() {
		article := feed.Article{
			ID:   "a1",
			Tags: []string{"ai", "space"},
		}

		It("matches when any filter tag is present", func() {
			Expect(article.HasAnyTag([]string{"space", "sports"})).To(BeTrue())
		})

		It("does not match when no filter tag is present", func() {
			Expect(article.HasAnyTag([]string{"sports", "finance"})).To(BeFalse())
		})

		It("matches everything on an empty filter", func() {
			Expect(article.HasAnyTag(nil)).To(BeTrue())
			Expect(article.HasAnyTag([]string{})).To(BeTrue())
		})

		It("does not match an untagged article against a filter", func() {
			untagged := feed.Article{ID: "a2"}
			Expect(untagged.HasAnyTag([]string{"ai"})).To(BeFalse())
		})
	})
})
