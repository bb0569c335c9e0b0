package embeddings

import "errors"

var errEmptyVector = errors.New("embedder returned an empty vector")
