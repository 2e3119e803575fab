package pipeline_test

import (
	"encoding/json"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/annotext/batch-annotator/internal/annotator"
	"github.com/annotext/batch-annotator/internal/pipeline"
)

func TestPipeline(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pipeline Suite")
}

var _ = Describe("registry", func() {
	var registry *pipeline.Registry

	BeforeEach(func() {
		registry = pipeline.NewRegistry()
	})

	Context("resolve", func() {
		It("resolves every registered name", func() {
			for _, name := range []string{"sentences", "cluSentences"} {
				desc, err := registry.Resolve(name)
				Expect(err).To(BeNil())
				Expect(desc.Name()).To(Equal(name))
			}
		})

		It("fails for an unknown name and carries it in the message", func() {
			desc, err := registry.Resolve("wordCounts")
			Expect(desc).To(BeNil())
			Expect(err).To(BeAssignableToTypeOf(&pipeline.NotFoundError{}))
			Expect(err.Error()).To(ContainSubstring("wordCounts"))
		})

		It("matches case-sensitively", func() {
			_, err := registry.Resolve("Sentences")
			Expect(err).ToNot(BeNil())
		})
	})
})

var _ = Describe("descriptors", func() {
	doc := annotator.Document{
		SourceName: "doc1.txt",
		Text:       "The cat sat.",
		Sentences: []annotator.Sentence{
			{
				Words:  []string{"The", "cat", "sat", "."},
				Lemmas: []string{"the", "cat", "sit", "."},
				Tags:   []string{"DT", "NN", "VBD", "."},
			},
		},
	}

	It("sentences keeps only words and tags", func() {
		desc, err := pipeline.NewRegistry().Resolve("sentences")
		Expect(err).To(BeNil())

		record, err := desc.Transform(doc)
		Expect(err).To(BeNil())
		Expect(record.Name).To(Equal("doc1.txt"))

		var rows []map[string]any
		Expect(json.Unmarshal(record.Contents, &rows)).To(Succeed())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0]).To(HaveKey("words"))
		Expect(rows[0]).To(HaveKey("tags"))
		Expect(rows[0]).ToNot(HaveKey("lemmas"))
	})

	It("cluSentences keeps the full document", func() {
		desc, err := pipeline.NewRegistry().Resolve("cluSentences")
		Expect(err).To(BeNil())

		record, err := desc.Transform(doc)
		Expect(err).To(BeNil())
		Expect(record.Name).To(Equal("doc1.txt"))

		var got annotator.Document
		Expect(json.Unmarshal(record.Contents, &got)).To(Succeed())
		Expect(got.Sentences[0].Lemmas).To(Equal(doc.Sentences[0].Lemmas))
		Expect(got.Text).To(Equal(doc.Text))
	})

	It("transform is pure", func() {
		desc, err := pipeline.NewRegistry().Resolve("cluSentences")
		Expect(err).To(BeNil())

		first, err := desc.Transform(doc)
		Expect(err).To(BeNil())
		second, err := desc.Transform(doc)
		Expect(err).To(BeNil())
		Expect(first).To(Equal(second))
	})
})
