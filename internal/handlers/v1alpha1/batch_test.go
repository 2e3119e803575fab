package v1alpha1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/annotext/batch-annotator/internal/annotator"
	"github.com/annotext/batch-annotator/internal/controller"
	"github.com/annotext/batch-annotator/internal/engine"
	handlers "github.com/annotext/batch-annotator/internal/handlers/v1alpha1"
	"github.com/annotext/batch-annotator/internal/objstore"
	"github.com/annotext/batch-annotator/internal/pipeline"
)

func TestHandlers(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Handlers Suite")
}

var _ = Describe("batch handlers", func() {
	var (
		router *chi.Mux
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		store := newMemStore()
		eng := engine.New(store, stubAnnotator{})
		ctrl := controller.New(store, pipeline.NewRegistry(), eng)

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		go ctrl.Run(ctx)

		h := handlers.NewServiceHandler(ctrl)
		router = chi.NewRouter()
		router.Get("/health", h.Health)
		router.Route("/api/v1", func(r chi.Router) {
			r.Post("/initialize", h.Initialize)
			r.Post("/batches", h.CreateBatch)
			r.Get("/batches/{id}/progress", h.CheckProgress)
		})
	})

	AfterEach(func() {
		cancel()
	})

	It("serves health", func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("initializes", func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/initialize", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("true"))
	})

	It("creates a batch and returns its id", func() {
		body := strings.NewReader(`{"bucket":"corpus","analysisType":"sentences"}`)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/batches", body))

		Expect(rec.Code).To(Equal(http.StatusCreated))

		var msg controller.ResultMessage
		Expect(json.Unmarshal(rec.Body.Bytes(), &msg)).To(Succeed())
		Expect(msg.Result).ToNot(BeEmpty())
		Expect(msg.Message).To(ContainSubstring("sentences"))
	})

	It("rejects an unknown analysis type", func() {
		body := strings.NewReader(`{"bucket":"corpus","analysisType":"wordCounts"}`)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/batches", body))

		Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))

		var msg controller.ResultMessage
		Expect(json.Unmarshal(rec.Body.Bytes(), &msg)).To(Succeed())
		Expect(msg.Result).To(BeEmpty())
		Expect(msg.Message).To(ContainSubstring("wordCounts"))
	})

	It("rejects a body without bucket", func() {
		body := strings.NewReader(`{"analysisType":"sentences"}`)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/batches", body))
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("acknowledges a progress check", func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/batches/batch123/progress?bucket=corpus", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))

		var msg controller.ResultMessage
		Expect(json.Unmarshal(rec.Body.Bytes(), &msg)).To(Succeed())
		Expect(msg.Result).To(Equal("batch123"))
	})
})

type memStore struct {
	lock    sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) List(ctx context.Context, bucket, prefix string) <-chan objstore.ListEntry {
	entries := make(chan objstore.ListEntry)
	go func() {
		defer close(entries)
		s.lock.Lock()
		var keys []string
		for key := range s.objects {
			if strings.HasPrefix(key, bucket+"/"+prefix) {
				keys = append(keys, strings.TrimPrefix(key, bucket+"/"))
			}
		}
		s.lock.Unlock()
		for _, key := range keys {
			select {
			case entries <- objstore.ListEntry{Info: objstore.FileInfo{Key: key, LastModified: time.Now()}}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return entries
}

func (s *memStore) Read(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	contents, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("object %s/%s not found", bucket, key)
	}
	return io.NopCloser(bytes.NewReader(contents)), nil
}

func (s *memStore) Write(ctx context.Context, bucket, key string, body io.Reader, size int64) error {
	contents, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.objects[bucket+"/"+key] = contents
	return nil
}

type stubAnnotator struct{}

func (stubAnnotator) Annotate(ctx context.Context, name string, contents []byte) (annotator.Document, error) {
	return annotator.Document{
		SourceName: name,
		Text:       string(contents),
		Sentences:  []annotator.Sentence{{Words: strings.Fields(string(contents))}},
	}, nil
}
