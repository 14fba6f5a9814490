package decoded

import (
	"context"

	"github.com/dociq/pagepdf/ir/raw"
)

// Object wraps a raw object after decoding.
type Object interface {
	Raw() raw.Object
	Type() string
}

// Stream represents a decoded PDF stream (decompressed/decrypted).
type Stream interface {
	Object
	Dictionary() raw.Dictionary
	Data() []byte
	Filters() []string
}

// DecodedDocument contains decoded objects plus a back-reference to the raw doc.
type DecodedDocument struct {
	Raw     *raw.Document
	Streams map[raw.ObjectRef]Stream
}

// Decoder transforms Raw IR into Decoded IR (applies stream filters; encrypted
// documents are rejected upstream at the raw.Document stage, §4.10).
type Decoder interface {
	Decode(ctx context.Context, rawDoc *raw.Document) (*DecodedDocument, error)
}
