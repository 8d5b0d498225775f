package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yourorg/workstream/internal/domain"
	"github.com/yourorg/workstream/internal/store"
)

// sequenceAttempts bounds the allocate/check retry loop. Two processes can
// still race the same candidate number; retries are expected to resolve it.
const sequenceAttempts = 5

// allocateSequence mints the next human-readable display id (TIC-001
// style) by scanning existing documents for the highest numeric suffix and
// reserving max+1. The scan covers deleted documents' survivors too, so
// the allocator tolerates gaps. Allocation is serialized in-process; the
// exists-check plus retry covers concurrent allocators in other processes.
func (r *Resource) allocateSequence(ctx context.Context, tenant string) (string, error) {
	seq := r.desc.Seq

	r.seqMu.Lock()
	defer r.seqMu.Unlock()

	scan := store.Query{}.
		Where(domain.FieldCompanyID, store.OpEq, tenant).
		Where(seq.Field, store.OpPrefix, seq.Prefix)

	for attempt := 0; attempt < sequenceAttempts; attempt++ {
		docs, err := r.store.Find(ctx, r.desc.Collection, scan, store.FindOptions{})
		if err != nil {
			return "", r.internal("allocate sequence for", tenant, err)
		}

		max := 0
		for _, doc := range docs {
			suffix := strings.TrimPrefix(doc.String(seq.Field), seq.Prefix)
			n, err := strconv.Atoi(suffix)
			if err != nil {
				continue
			}
			if n > max {
				max = n
			}
		}

		candidate := fmt.Sprintf("%s%0*d", seq.Prefix, seq.Width, max+1)

		taken, err := r.store.Count(ctx, r.desc.Collection, store.Query{}.
			Where(domain.FieldCompanyID, store.OpEq, tenant).
			Where(seq.Field, store.OpEq, candidate))
		if err != nil {
			return "", r.internal("allocate sequence for", tenant, err)
		}
		if taken == 0 {
			return candidate, nil
		}
		// Lost the reservation race; rescan.
	}

	return "", domain.Internal(
		fmt.Sprintf("could not allocate %s number", strings.ToLower(r.desc.Label)), nil)
}
