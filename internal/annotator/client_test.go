package annotator_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/annotext/batch-annotator/internal/annotator"
)

func TestAnnotator(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Annotator Suite")
}

var _ = Describe("annotation gateway", func() {
	It("stamps the document with the source file name", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			_ = json.NewEncoder(w).Encode(annotator.Document{
				Text: string(body),
				Sentences: []annotator.Sentence{
					{Words: []string{"Hello", "."}, Tags: []string{"UH", "."}},
				},
			})
		}))
		defer server.Close()

		client := annotator.NewClient(server.URL)
		doc, err := client.Annotate(context.TODO(), "doc1.txt", []byte("Hello."))
		Expect(err).To(BeNil())
		Expect(doc.SourceName).To(Equal("doc1.txt"))
		Expect(doc.Text).To(Equal("Hello."))
		Expect(doc.Sentences).To(HaveLen(1))
	})

	It("fails when the service replies with an error status", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := annotator.NewClient(server.URL)
		_, err := client.Annotate(context.TODO(), "doc1.txt", []byte("Hello."))
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(ContainSubstring("500"))
	})

	It("fails when the service never replies in time", func() {
		blocked := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-blocked
		}))
		defer server.Close()
		defer close(blocked)

		client := annotator.NewClient(server.URL)

		// The request deadline is min(ctx, RequestTimeout); a short caller
		// context keeps the test fast while exercising the same path.
		ctx, cancel := context.WithTimeout(context.TODO(), 50*time.Millisecond)
		defer cancel()

		_, err := client.Annotate(ctx, "doc1.txt", []byte("Hello."))
		Expect(err).ToNot(BeNil())
	})

	It("keeps at most five requests in flight", func() {
		var (
			lock        sync.Mutex
			inFlight    int
			maxInFlight int
		)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lock.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			lock.Unlock()

			time.Sleep(20 * time.Millisecond)

			lock.Lock()
			inFlight--
			lock.Unlock()

			_ = json.NewEncoder(w).Encode(annotator.Document{})
		}))
		defer server.Close()

		client := annotator.NewClient(server.URL)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := client.Annotate(context.TODO(), "doc.txt", []byte("text"))
				Expect(err).To(BeNil())
			}()
		}
		wg.Wait()

		lock.Lock()
		defer lock.Unlock()
		Expect(maxInFlight).To(BeNumerically("<=", annotator.MaxInFlight))
	})
})
