package simpleasset

import "context"

// GenerateNameFunc produces the next candidate name given the desired name
// and the previous conflicting candidate ("" on the first attempt).
type GenerateNameFunc func(name, conflict string) string

// ResolveUniqueName repeatedly generates candidate names, feeding the last
// candidate back as the conflict hint, until the blob store reports a
// candidate that does not exist. The only error path is the store's own I/O
// failure.
//
// The loop terminates only if the generate function eventually escapes any
// fixed conflict set; an always-conflicting strategy is a caller configuration
// defect. The existence-check-then-claim sequence is not atomic: two
// concurrent callers resolving from the same desired name can both observe
// "not exists" before either writes.
func ResolveUniqueName(ctx context.Context, store BlobStore, generate GenerateNameFunc, name string) (string, error) {
	var candidate string
	for {
		candidate = generate(name, candidate)
		exists, err := store.FileExists(ctx, candidate)
		if err != nil {
			return "", &StorageError{Key: candidate, Op: "exists", Err: err}
		}
		if !exists {
			return candidate, nil
		}
	}
}
