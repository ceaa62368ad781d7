package entities

// ElementVisitor receives elements streamed out of a scan or search.
// Implementations must not retain the element past the call.
type ElementVisitor interface {
	Visit(element Element)
}

// VisitorFunc adapts a function to the ElementVisitor interface.
type VisitorFunc func(Element)

func (f VisitorFunc) Visit(element Element) { f(element) }

// NewFilterVisitor wraps inner so that only elements satisfying the
// predicate are forwarded. It is the composition point between term
// matching and geometric filtering: the producer stays ignorant of
// geometry, the predicate stays ignorant of storage.
func NewFilterVisitor(inner ElementVisitor, predicate func(Element) bool) ElementVisitor {
	return VisitorFunc(func(element Element) {
		if predicate(element) {
			inner.Visit(element)
		}
	})
}
