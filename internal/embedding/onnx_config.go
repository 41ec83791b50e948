package embedding

import "errors"

var errNoVocab = errors.New("ONNX embedder requires a vocab file")

// ONNXConfig describes an ONNX sentence-embedding model on disk.
type ONNXConfig struct {
	ModelPath  string
	VocabPath  string
	Dimensions int
	MaxTokens  int
}
