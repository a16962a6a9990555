package dump

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mamiri/firedump/internal/database"
)

// Store is what the walker needs from a connected database.
type Store interface {
	ProjectID() string
	RootCollections(ctx context.Context) ([]database.Collection, error)
}

// Options are the read-only traversal parameters threaded down each
// recursive call.
type Options struct {
	MaxDepth   int
	FetchLimit int
	NoLimit    bool
}

// Walker prints a depth-first dump of the store to out. Strictly sequential;
// every step blocks on a store round trip. Errors below the root are
// contained per collection and never retried.
type Walker struct {
	store Store
	out   io.Writer
	ser   *Serializer
	opts  Options
}

// NewWalker builds a Walker. A zero FetchLimit falls back to 5.
func NewWalker(store Store, out io.Writer, ser *Serializer, opts Options) *Walker {
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = 5
	}
	return &Walker{store: store, out: out, ser: ser, opts: opts}
}

// Run enumerates the root collections and dumps each one. A listing failure
// at the root is fatal to the run; anything deeper only abandons its own
// subtree.
func (w *Walker) Run(ctx context.Context) error {
	fmt.Fprintln(w.out, "\nFetching top-level collections...")

	roots, err := w.store.RootCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list top-level collections: %w", err)
	}

	if len(roots) == 0 {
		fmt.Fprintln(w.out, "No top-level collections found in this database.")
		fmt.Fprintln(w.out, "--- Firestore Data Dump Complete (No Data) ---")
		return nil
	}

	fmt.Fprintf(w.out, "Found %d top-level collections.\n", len(roots))
	fmt.Fprintln(w.out, "\nFetching data recursively (this may take time and incur read costs)...")

	for _, col := range roots {
		w.dumpCollection(ctx, col, 0)
	}

	fmt.Fprintln(w.out, "\n-----------------------------------------")
	fmt.Fprintf(w.out, "--- End of Firestore Data Dump (%s) ---\n", w.store.ProjectID())
	return nil
}

// dumpCollection prints one collection and recurses into the subcollections
// of each of its documents. depth counts from zero at the root.
func (w *Walker) dumpCollection(ctx context.Context, col database.Collection, depth int) {
	indent := strings.Repeat("  ", depth)

	if depth > w.opts.MaxDepth {
		fmt.Fprintf(w.out, "%s!!! Max recursion depth (%d) reached for collection: %s. Stopping recursion here. !!!\n",
			indent, w.opts.MaxDepth, col.ID())
		return
	}

	fmt.Fprintf(w.out, "\n%s-----------------------------------------\n", indent)
	fmt.Fprintf(w.out, "%s--- Processing Collection: %s ---\n", indent, col.ID())
	fmt.Fprintf(w.out, "%s-----------------------------------------\n", indent)

	limit := w.opts.FetchLimit
	if w.opts.NoLimit {
		limit = 0
		fmt.Fprintf(w.out, "%sFetching ALL documents from collection: %s\n", indent, col.ID())
	} else {
		fmt.Fprintf(w.out, "%sFetching up to %d documents from collection: %s\n", indent, limit, col.ID())
	}

	docs, err := col.Documents(ctx, limit)
	if err != nil {
		w.warnCollection(col.ID(), indent, err)
		return
	}

	docIndent := strings.Repeat("  ", depth+1)
	for _, doc := range docs {
		fmt.Fprintf(w.out, "\n%s--- Document: %s ---\n", docIndent, doc.ID())

		body, err := w.ser.MarshalDocument(doc.Data())
		if err != nil {
			w.warnCollection(col.ID(), indent, err)
			return
		}
		fmt.Fprintln(w.out, string(body))

		subs, err := doc.Collections(ctx)
		if err != nil {
			w.warnCollection(col.ID(), indent, err)
			return
		}
		if len(subs) > 0 {
			fmt.Fprintf(w.out, "%s--- Checking subcollections for document %s ---\n", docIndent, doc.ID())
			for _, sub := range subs {
				w.dumpCollection(ctx, sub, depth+1)
			}
		}
	}

	if len(docs) == 0 {
		fmt.Fprintf(w.out, "%s(Collection '%s' appears empty or has no documents directly within it)\n", docIndent, col.ID())
	}
}

func (w *Walker) warnCollection(id, indent string, err error) {
	fmt.Fprintf(w.out, "\n!!! Warning: Error processing collection '%s'. Skipping collection. !!!\n", id)
	fmt.Fprintf(w.out, "%sError details: %v\n", indent, err)
}
