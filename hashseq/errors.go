package hashseq

import "golang.org/x/xerrors"

// Sentinel errors this package can return. Callers should compare against
// these with errors.Is (or xerrors.Is) rather than matching on message
// text.
var (
	// ErrHashMismatch means a HashNode's computed Id does not match the Id
	// it was claimed to have. Permanent rejection.
	ErrHashMismatch = xerrors.New("hashseq: hash mismatch")

	// ErrMalformedOp means a HashNode is structurally invalid (a Remove
	// targeting a non-insertion, and similar). An empty Remove target set
	// is reported as ErrEmptyRemove instead. Permanent rejection.
	ErrMalformedOp = xerrors.New("hashseq: malformed op")

	// ErrEmptyRemove means a Remove op was built or received with no
	// targets. Permanent rejection; kept distinct from the general
	// ErrMalformedOp since it's common enough to check for on its own.
	ErrEmptyRemove = xerrors.New("hashseq: empty remove")

	// ErrPositionOutOfRange means a caller asked to Insert/Remove at a
	// position beyond the replica's current length. Recoverable: it never
	// mutates state.
	ErrPositionOutOfRange = xerrors.New("hashseq: position out of range")
)

// xerrorsWrap wraps err with a message, preserving it for errors.Is/As.
func xerrorsWrap(msg string, err error) error {
	return xerrors.Errorf("%s: %w", msg, err)
}
