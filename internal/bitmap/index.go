// Package bitmap maintains the per-tile inverted term index: one roaring
// bitmap per term over insertion order, combined bitwise to answer
// boolean queries. The package knows nothing about element payloads or
// geometry; matches are reported as insertion orders and resolved by the
// caller.
package bitmap

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// Index maps each indexed term to the set of insertion orders whose
// element carries that term. Not safe for concurrent use.
type Index struct {
	count uint32
	terms map[string]*roaring.Bitmap
}

// New returns an empty index.
func New() *Index {
	return &Index{terms: make(map[string]*roaring.Bitmap)}
}

// Count returns the number of insertion orders covered by the index.
func (ix *Index) Count() uint32 {
	return ix.count
}

// Add records that the element stored at the given insertion order
// carries the given terms. Orders must only grow; re-adding an order is
// harmless but never clears bits.
func (ix *Index) Add(terms []string, order uint32) {
	for _, term := range terms {
		rb, ok := ix.terms[term]
		if !ok {
			rb = roaring.New()
			ix.terms[term] = rb
		}
		rb.Add(order)
	}
	if order+1 > ix.count {
		ix.count = order + 1
	}
}

// Query evaluates (OR of orTerms) AND (AND of andTerms) AND NOT (OR of
// notTerms) and yields the matching insertion orders in ascending order.
// An empty orTerms acts as the universal set; empty andTerms and notTerms
// are identities. Terms never indexed contribute an empty bitmap.
func (ix *Index) Query(notTerms, andTerms, orTerms []string) iter.Seq[uint32] {
	result := ix.evaluate(notTerms, andTerms, orTerms)
	return func(yield func(uint32) bool) {
		it := result.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

func (ix *Index) evaluate(notTerms, andTerms, orTerms []string) *roaring.Bitmap {
	var result *roaring.Bitmap
	if len(orTerms) > 0 {
		result = ix.union(orTerms)
	} else {
		result = roaring.New()
		result.AddRange(0, uint64(ix.count))
	}

	for _, term := range andTerms {
		rb, ok := ix.terms[term]
		if !ok {
			return roaring.New()
		}
		result.And(rb)
		if result.IsEmpty() {
			return result
		}
	}

	if len(notTerms) > 0 {
		result.AndNot(ix.union(notTerms))
	}
	return result
}

func (ix *Index) union(terms []string) *roaring.Bitmap {
	out := roaring.New()
	for _, term := range terms {
		if rb, ok := ix.terms[term]; ok {
			out.Or(rb)
		}
	}
	return out
}
