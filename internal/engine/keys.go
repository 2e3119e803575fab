package engine

const (
	// InputExtension and OutputExtension are the conventional extensions for
	// source files and result files.
	InputExtension  = ".txt"
	OutputExtension = ".json"
)

// NewFileName derives an output key from an input key using the conventional
// extensions: "batch123/doc1.txt" with tag "result" becomes
// "batch123/doc1-result.json".
func NewFileName(current, tag string) string {
	return NewFileNameExt(current, tag, InputExtension, OutputExtension)
}

// NewFileNameExt strips exactly len(inExt) trailing characters from current
// and appends "-" + tag + outExt. It assumes current ends in inExt; a key
// that does not is truncated blindly.
func NewFileNameExt(current, tag, inExt, outExt string) string {
	base := ""
	if len(current) >= len(inExt) {
		base = current[:len(current)-len(inExt)]
	}
	return base + "-" + tag + outExt
}
