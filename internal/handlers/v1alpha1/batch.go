package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/annotext/batch-annotator/internal/controller"
	"github.com/annotext/batch-annotator/pkg/requestid"
)

// ServiceHandler carries the control protocol over HTTP, one route per
// controller request type.
type ServiceHandler struct {
	ctrl *controller.BatchController
}

func NewServiceHandler(ctrl *controller.BatchController) *ServiceHandler {
	return &ServiceHandler{ctrl: ctrl}
}

type createBatchForm struct {
	Bucket          string `json:"bucket"`
	AnalysisType    string `json:"analysisType"`
	AnnotatorHandle string `json:"annotatorHandle,omitempty"`
}

type errorReply struct {
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// (POST /api/v1/initialize)
func (s *ServiceHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	reply := make(chan bool, 1)
	if err := s.ctrl.Send(r.Context(), controller.InitializeRequest{Reply: reply}); err != nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, errorReply{Message: err.Error(), RequestID: requestid.FromRequest(r)})
		return
	}

	select {
	case ok := <-reply:
		render.JSON(w, r, map[string]bool{"initialized": ok})
	case <-r.Context().Done():
	}
}

// (POST /api/v1/batches)
func (s *ServiceHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var form createBatchForm
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorReply{Message: "malformed request body", RequestID: requestid.FromRequest(r)})
		return
	}

	if form.Bucket == "" || form.AnalysisType == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorReply{Message: "bucket and analysisType are required", RequestID: requestid.FromRequest(r)})
		return
	}

	reply := make(chan controller.ResultMessage, 1)
	req := controller.AnalyseSourceRequest{
		Bucket:          form.Bucket,
		AnalysisType:    form.AnalysisType,
		AnnotatorHandle: form.AnnotatorHandle,
		Reply:           reply,
	}
	if err := s.ctrl.Send(r.Context(), req); err != nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, errorReply{Message: err.Error(), RequestID: requestid.FromRequest(r)})
		return
	}

	select {
	case msg := <-reply:
		if msg.Result == "" {
			render.Status(r, http.StatusUnprocessableEntity)
		} else {
			render.Status(r, http.StatusCreated)
		}
		render.JSON(w, r, msg)
	case <-r.Context().Done():
	}
}

// (GET /api/v1/batches/{id}/progress)
func (s *ServiceHandler) CheckProgress(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "id")
	bucket := r.URL.Query().Get("bucket")

	reply := make(chan controller.ResultMessage, 1)
	req := controller.CheckProgressRequest{
		Bucket:  bucket,
		BatchID: batchID,
		Reply:   reply,
	}
	if err := s.ctrl.Send(r.Context(), req); err != nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, errorReply{Message: err.Error(), RequestID: requestid.FromRequest(r)})
		return
	}

	select {
	case msg := <-reply:
		render.JSON(w, r, msg)
	case <-r.Context().Done():
	}
}

// (GET /health)
func (s *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
