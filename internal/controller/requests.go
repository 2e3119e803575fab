package controller

// ResultMessage is the uniform reply shape for every control operation.
// Result carries a batch id on success and is empty on failure.
type ResultMessage struct {
	Result  string `json:"result"`
	Message string `json:"message"`
}

// Request is a control message for the controller mailbox. The controller
// understands InitializeRequest, AnalyseSourceRequest and
// CheckProgressRequest; anything else is logged and dropped without a reply.
type Request any

// InitializeRequest verifies connectivity preconditions to the object store.
type InitializeRequest struct {
	Reply chan bool
}

// AnalyseSourceRequest starts a new batch over every file under the source
// prefix of Bucket, streamed through the named analysis pipeline.
type AnalyseSourceRequest struct {
	Bucket          string
	AnalysisType    string
	AnnotatorHandle string
	Reply           chan ResultMessage
}

// CheckProgressRequest asks after a running batch. No progress state is
// persisted, so the reply is an acknowledgement only.
type CheckProgressRequest struct {
	Bucket  string
	BatchID string
	Reply   chan ResultMessage
}
