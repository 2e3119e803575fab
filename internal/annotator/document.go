package annotator

// Sentence carries the per-sentence annotation layers produced by the
// annotation service. The layers are positional: Tags[i] belongs to Words[i].
type Sentence struct {
	Words    []string `json:"words"`
	Lemmas   []string `json:"lemmas,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Entities []string `json:"entities,omitempty"`
}

// Document is an annotated text. SourceName identifies the file the text was
// read from; it is stamped by the gateway, not the annotation service.
type Document struct {
	SourceName string     `json:"sourceName,omitempty"`
	Text       string     `json:"text"`
	Sentences  []Sentence `json:"sentences"`
}
