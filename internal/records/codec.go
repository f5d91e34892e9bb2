package records

import (
	"encoding/json"
	"fmt"
	"io"
)

// DecodeBatch reads one canonical batch from JSON. Unknown fields are
// rejected: a producer emitting a column this model does not declare is a
// contract break, not something to drop on the floor. Type mismatches
// (a string where a number belongs, and the reverse) fail the decode the
// same way.
//
// Decoding does not validate; callers run Batch.Validate (the load engine
// does it again regardless) so that programmatically built batches get the
// same checks as decoded ones.
func DecodeBatch(r io.Reader) (*Batch, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var b Batch
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("records: decode batch: %w", err)
	}
	return &b, nil
}

// EncodeBatch writes the batch as indented JSON, the inverse of
// DecodeBatch. Used by adapters and fixtures.
func EncodeBatch(w io.Writer, b *Batch) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("records: encode batch: %w", err)
	}
	return nil
}
