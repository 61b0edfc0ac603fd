package rmigo

// Close releases the resident model, implementing io.Closer.
// It is equivalent to Cleanup and always returns nil.
func (li *LearnedIndex) Close() error {
	if li == nil {
		return nil
	}
	li.Cleanup()
	return nil
}
