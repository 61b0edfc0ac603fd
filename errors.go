package rmigo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/rmigo/blobstore"
	"github.com/hupe1980/rmigo/persistence"
)

var (
	// ErrNotLoaded is returned by lookups on an unloaded index.
	ErrNotLoaded = errors.New("index not loaded")

	// ErrModelNotFound indicates that no model exists at the given location.
	ErrModelNotFound = errors.New("model not found")

	// ErrCorruptedModel indicates that a stored model failed its integrity
	// checks (checksum, framing, or manifest/parameter disagreement).
	ErrCorruptedModel = errors.New("corrupted model")
)

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrModelNotFound, err)
	}

	if persistence.IsChecksumMismatch(err) ||
		errors.Is(err, persistence.ErrBadMagic) ||
		errors.Is(err, persistence.ErrTruncated) {
		return fmt.Errorf("%w: %w", ErrCorruptedModel, err)
	}

	return err
}
