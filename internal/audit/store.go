package audit

import "context"

// Store is the append-only persistence port for audit entries. Append must
// participate in any transaction carried by ctx so the entry commits or rolls
// back with the operation it records. The port deliberately has no update or
// delete methods.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}
