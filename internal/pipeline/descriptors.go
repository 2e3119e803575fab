package pipeline

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/annotext/batch-annotator/internal/annotator"
	"github.com/annotext/batch-annotator/internal/objstore"
)

// sentencesDescriptor emits one row per sentence, keeping only the token and
// part-of-speech layers.
type sentencesDescriptor struct{}

func (sentencesDescriptor) Name() string {
	return "sentences"
}

type sentenceRow struct {
	Words []string `json:"words"`
	Tags  []string `json:"tags,omitempty"`
}

func (sentencesDescriptor) Transform(doc annotator.Document) (objstore.FileRecord, error) {
	rows := make([]sentenceRow, 0, len(doc.Sentences))
	for _, s := range doc.Sentences {
		rows = append(rows, sentenceRow{Words: s.Words, Tags: s.Tags})
	}

	contents, err := json.Marshal(rows)
	if err != nil {
		return objstore.FileRecord{}, errors.Wrapf(err, "failed to serialize sentences for %s", doc.SourceName)
	}

	return objstore.FileRecord{Name: doc.SourceName, Contents: contents}, nil
}

// cluSentencesDescriptor emits the full annotated document with every tag
// layer the annotation service produced.
type cluSentencesDescriptor struct{}

func (cluSentencesDescriptor) Name() string {
	return "cluSentences"
}

func (cluSentencesDescriptor) Transform(doc annotator.Document) (objstore.FileRecord, error) {
	contents, err := json.Marshal(doc)
	if err != nil {
		return objstore.FileRecord{}, errors.Wrapf(err, "failed to serialize document for %s", doc.SourceName)
	}

	return objstore.FileRecord{Name: doc.SourceName, Contents: contents}, nil
}
