package validation

import (
	"fmt"
	"strings"

	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// OverlappingFieldsCanBeMerged rejects documents in which two field
// selections would populate the same response key incompatibly: with
// different underlying fields, differing arguments, or conflicting
// leaf return types. Selections that can never apply to the same
// concrete object at once (distinct object-typed contexts) are exempt
// from the field/argument checks but still compared structurally
// below, since their sub-selections may meet again on a shared type.
func OverlappingFieldsCanBeMerged(s *schema.Schema, doc *language.QueryDocument) language.ErrorList {
	f := &conflictFinder{
		schema:        s,
		doc:           doc,
		fragmentCache: make(map[string]*selectionFields),
		compared:      make(pairSet),
	}
	for _, op := range doc.Operations {
		f.checkSelectionSet(s.TypeByName(operationRootType(s, op)), op.SelectionSet)
	}
	for _, frag := range doc.Fragments {
		f.checkSelectionSet(s.TypeByName(frag.TypeCondition), frag.SelectionSet)
	}
	return f.errs
}

func operationRootType(s *schema.Schema, op *language.OperationDefinition) string {
	switch op.Operation {
	case language.Mutation:
		return s.MutationType
	case language.Subscription:
		return s.SubscriptionType
	default:
		return s.QueryType
	}
}

// conflictFinder carries the per-document state of one rule run: the
// per-fragment field collections and the memo of already-compared
// fragment pairs. The memo guarantees termination through mutually
// recursive fragment spreads.
type conflictFinder struct {
	schema        *schema.Schema
	doc           *language.QueryDocument
	fragmentCache map[string]*selectionFields
	compared      pairSet
	errs          language.ErrorList
}

// fieldEntry is one occurrence of a response key: the type context the
// selection appeared under, the AST field, and the resolved field
// definition when the context type declares it.
type fieldEntry struct {
	parentType *schema.Type
	field      *language.Field
	def        *schema.Field
}

// selectionFields is the flattened view of one selection set: response
// keys in first-seen order mapped to their occurrences, plus the names
// of fragments spread anywhere in it. Inline fragments dissolve into
// the same map, carrying their type condition as the occurrence's
// context.
type selectionFields struct {
	order         []string
	fields        map[string][]fieldEntry
	fragmentNames []string
}

// conflict is one detected violation: the reason tree and the source
// positions of each side (own field first, then nested positions in
// discovery order).
type conflict struct {
	reason     conflictReason
	positions1 []*language.Position
	positions2 []*language.Position
}

type conflictReason struct {
	responseKey string
	message     string
	nested      []conflictReason
}

func (r conflictReason) describe() string {
	if r.nested == nil {
		return r.message
	}
	parts := make([]string, len(r.nested))
	for i, sub := range r.nested {
		parts[i] = fmt.Sprintf("subfields %q conflict because %s", sub.responseKey, sub.describe())
	}
	return strings.Join(parts, " and ")
}

// pairSet memoizes compared fragment-name pairs together with the
// mutual-exclusivity flag they were compared under. A pair compared as
// non-exclusive subsumes a later exclusive query; the reverse does not
// hold, so an exclusive entry is overwritten when the non-exclusive
// comparison runs.
type pairSet map[pairKey]bool

type pairKey struct {
	a, b string
}

func newPairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

func (p pairSet) has(a, b string, mutuallyExclusive bool) bool {
	recorded, ok := p[newPairKey(a, b)]
	if !ok {
		return false
	}
	if mutuallyExclusive {
		return true
	}
	return !recorded
}

func (p pairSet) add(a, b string, mutuallyExclusive bool) {
	p[newPairKey(a, b)] = mutuallyExclusive
}

// checkSelectionSet analyzes one selection set in within mode and then
// descends into every sub-selection it contains. Fragment definition
// bodies are analyzed from the document's fragment list, not at their
// spread sites.
func (f *conflictFinder) checkSelectionSet(parentType *schema.Type, set language.SelectionSet) {
	var conflicts []conflict
	sf := f.collectSet(parentType, set)

	f.conflictsWithin(&conflicts, sf)
	for i, name := range sf.fragmentNames {
		f.conflictsFieldsAndFragment(&conflicts, false, sf, name)
		for _, other := range sf.fragmentNames[i+1:] {
			f.conflictsBetweenFragments(&conflicts, false, name, other)
		}
	}
	for _, c := range conflicts {
		f.report(c)
	}

	for _, sel := range set {
		switch sel := sel.(type) {
		case *language.Field:
			if len(sel.SelectionSet) == 0 {
				continue
			}
			var next *schema.Type
			if parentType != nil && parentType.IsComposite() {
				if def := parentType.FieldByName(sel.Name); def != nil {
					next = f.schema.TypeByName(def.Type.GetNamedType())
				}
			}
			f.checkSelectionSet(next, sel.SelectionSet)
		case *language.InlineFragment:
			next := parentType
			if sel.TypeCondition != "" {
				next = f.schema.TypeByName(sel.TypeCondition)
			}
			f.checkSelectionSet(next, sel.SelectionSet)
		}
	}
}

// collectSet flattens a selection set into its field map and fragment
// name list. @skip and @include are deliberately not evaluated: the
// analysis is static and covers every branch.
func (f *conflictFinder) collectSet(parentType *schema.Type, set language.SelectionSet) *selectionFields {
	sf := &selectionFields{fields: make(map[string][]fieldEntry)}
	f.collectInto(parentType, set, sf, make(map[string]bool))
	return sf
}

func (f *conflictFinder) collectInto(parentType *schema.Type, set language.SelectionSet, sf *selectionFields, seen map[string]bool) {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *language.Field:
			var def *schema.Field
			if parentType != nil && parentType.IsComposite() {
				def = parentType.FieldByName(sel.Name)
			}
			key := sel.Alias
			if key == "" {
				key = sel.Name
			}
			if _, ok := sf.fields[key]; !ok {
				sf.order = append(sf.order, key)
			}
			sf.fields[key] = append(sf.fields[key], fieldEntry{parentType: parentType, field: sel, def: def})
		case *language.FragmentSpread:
			if !seen[sel.Name] {
				seen[sel.Name] = true
				sf.fragmentNames = append(sf.fragmentNames, sel.Name)
			}
		case *language.InlineFragment:
			next := parentType
			if sel.TypeCondition != "" {
				next = f.schema.TypeByName(sel.TypeCondition)
			}
			f.collectInto(next, sel.SelectionSet, sf, seen)
		}
	}
}

// fragmentFields returns the (cached) flattened view of a fragment
// definition's body, rooted at its type condition.
func (f *conflictFinder) fragmentFields(name string) *selectionFields {
	if sf, ok := f.fragmentCache[name]; ok {
		return sf
	}
	frag := f.doc.Fragments.ForName(name)
	if frag == nil {
		f.fragmentCache[name] = nil
		return nil
	}
	sf := f.collectSet(f.schema.TypeByName(frag.TypeCondition), frag.SelectionSet)
	f.fragmentCache[name] = sf
	return sf
}

// conflictsWithin compares every pair of occurrences of each response
// key inside one selection set. Fields of a single set are never
// mutually exclusive, whatever their contexts.
func (f *conflictFinder) conflictsWithin(acc *[]conflict, sf *selectionFields) {
	for _, key := range sf.order {
		entries := sf.fields[key]
		for i := 0; i < len(entries); i++ {
			for j := i + 1; j < len(entries); j++ {
				if c, ok := f.findConflict(false, key, entries[i], entries[j]); ok {
					*acc = append(*acc, c)
				}
			}
		}
	}
}

// conflictsBetween compares the shared response keys of two flattened
// views under the inherited mutual-exclusivity flag.
func (f *conflictFinder) conflictsBetween(acc *[]conflict, mutuallyExclusive bool, sf1, sf2 *selectionFields) {
	for _, key := range sf1.order {
		entries2, ok := sf2.fields[key]
		if !ok {
			continue
		}
		for _, e1 := range sf1.fields[key] {
			for _, e2 := range entries2 {
				if c, ok := f.findConflict(mutuallyExclusive, key, e1, e2); ok {
					*acc = append(*acc, c)
				}
			}
		}
	}
}

func (f *conflictFinder) conflictsFieldsAndFragment(acc *[]conflict, mutuallyExclusive bool, sf *selectionFields, fragmentName string) {
	sf2 := f.fragmentFields(fragmentName)
	if sf2 == nil || sf2 == sf {
		return
	}
	f.conflictsBetween(acc, mutuallyExclusive, sf, sf2)
	for _, nested := range sf2.fragmentNames {
		if f.compared.has(nested, fragmentName, mutuallyExclusive) {
			continue
		}
		f.compared.add(nested, fragmentName, mutuallyExclusive)
		f.conflictsFieldsAndFragment(acc, mutuallyExclusive, sf, nested)
	}
}

func (f *conflictFinder) conflictsBetweenFragments(acc *[]conflict, mutuallyExclusive bool, name1, name2 string) {
	if name1 == name2 {
		return
	}
	if f.compared.has(name1, name2, mutuallyExclusive) {
		return
	}
	f.compared.add(name1, name2, mutuallyExclusive)

	sf1 := f.fragmentFields(name1)
	sf2 := f.fragmentFields(name2)
	if sf1 == nil || sf2 == nil {
		return
	}
	f.conflictsBetween(acc, mutuallyExclusive, sf1, sf2)
	for _, nested := range sf2.fragmentNames {
		f.conflictsBetweenFragments(acc, mutuallyExclusive, name1, nested)
	}
	for _, nested := range sf1.fragmentNames {
		f.conflictsBetweenFragments(acc, mutuallyExclusive, nested, name2)
	}
}

// findConflict decides whether two occurrences of one response key can
// merge. Occurrences whose contexts are distinct object types can
// never apply to the same object, so their names and arguments may
// differ freely; their return types and sub-selections must still be
// structurally compatible.
func (f *conflictFinder) findConflict(parentsMutuallyExclusive bool, responseKey string, e1, e2 fieldEntry) (conflict, bool) {
	mutuallyExclusive := parentsMutuallyExclusive ||
		(e1.parentType != e2.parentType &&
			e1.parentType != nil && e1.parentType.Kind == schema.TypeKindObject &&
			e2.parentType != nil && e2.parentType.Kind == schema.TypeKindObject)

	if !mutuallyExclusive {
		if e1.field.Name != e2.field.Name {
			return f.flatConflict(responseKey, e1, e2,
				fmt.Sprintf("%s and %s are different fields", e1.field.Name, e2.field.Name)), true
		}
		if !sameArguments(e1.field.Arguments, e2.field.Arguments) {
			return f.flatConflict(responseKey, e1, e2, "they have differing arguments"), true
		}
	}

	var t1, t2 *schema.TypeRef
	if e1.def != nil {
		t1 = e1.def.Type
	}
	if e2.def != nil {
		t2 = e2.def.Type
	}
	if t1 != nil && t2 != nil && f.typesConflict(t1, t2) {
		return f.flatConflict(responseKey, e1, e2,
			fmt.Sprintf("they return conflicting types %s and %s", t1, t2)), true
	}

	if len(e1.field.SelectionSet) > 0 && len(e2.field.SelectionSet) > 0 {
		sub := f.subSelectionConflicts(mutuallyExclusive, t1, e1.field.SelectionSet, t2, e2.field.SelectionSet)
		if len(sub) > 0 {
			return nestedConflict(responseKey, e1.field.Position, e2.field.Position, sub), true
		}
	}
	return conflict{}, false
}

func (f *conflictFinder) flatConflict(responseKey string, e1, e2 fieldEntry, message string) conflict {
	return conflict{
		reason:     conflictReason{responseKey: responseKey, message: message},
		positions1: []*language.Position{e1.field.Position},
		positions2: []*language.Position{e2.field.Position},
	}
}

func nestedConflict(responseKey string, pos1, pos2 *language.Position, sub []conflict) conflict {
	c := conflict{
		reason:     conflictReason{responseKey: responseKey, nested: make([]conflictReason, 0, len(sub))},
		positions1: []*language.Position{pos1},
		positions2: []*language.Position{pos2},
	}
	for _, s := range sub {
		c.reason.nested = append(c.reason.nested, s.reason)
		c.positions1 = append(c.positions1, s.positions1...)
		c.positions2 = append(c.positions2, s.positions2...)
	}
	return c
}

// subSelectionConflicts compares the sub-selections of two same-key
// composite fields against each other (between mode), including each
// side's fragments, under the given exclusivity flag.
func (f *conflictFinder) subSelectionConflicts(mutuallyExclusive bool, t1 *schema.TypeRef, set1 language.SelectionSet, t2 *schema.TypeRef, set2 language.SelectionSet) []conflict {
	var pt1, pt2 *schema.Type
	if t1 != nil {
		pt1 = f.schema.TypeByName(t1.GetNamedType())
	}
	if t2 != nil {
		pt2 = f.schema.TypeByName(t2.GetNamedType())
	}
	sf1 := f.collectSet(pt1, set1)
	sf2 := f.collectSet(pt2, set2)

	var out []conflict
	f.conflictsBetween(&out, mutuallyExclusive, sf1, sf2)
	for _, name2 := range sf2.fragmentNames {
		f.conflictsFieldsAndFragment(&out, mutuallyExclusive, sf1, name2)
	}
	for _, name1 := range sf1.fragmentNames {
		f.conflictsFieldsAndFragment(&out, mutuallyExclusive, sf2, name1)
	}
	for _, name1 := range sf1.fragmentNames {
		for _, name2 := range sf2.fragmentNames {
			f.conflictsBetweenFragments(&out, mutuallyExclusive, name1, name2)
		}
	}
	return out
}

// typesConflict reports whether two declared return types can never
// produce a common response shape: identical wrapper nesting around
// two different leaf types. Differently shaped wrappers and non-leaf
// name mismatches are left to the sub-selection comparison.
func (f *conflictFinder) typesConflict(t1, t2 *schema.TypeRef) bool {
	if t1 == nil || t2 == nil {
		return false
	}
	switch {
	case t1.Kind == schema.TypeRefKindList && t2.Kind == schema.TypeRefKindList,
		t1.Kind == schema.TypeRefKindNonNull && t2.Kind == schema.TypeRefKindNonNull:
		return f.typesConflict(t1.OfType, t2.OfType)
	case t1.Kind == schema.TypeRefKindNamed && t2.Kind == schema.TypeRefKindNamed:
		def1 := f.schema.TypeByName(t1.Named)
		def2 := f.schema.TypeByName(t2.Named)
		if (def1 != nil && def1.IsLeaf()) || (def2 != nil && def2.IsLeaf()) {
			return t1.Named != t2.Named
		}
		return false
	default:
		return false
	}
}

// sameArguments compares two argument lists as unordered sets of
// (name, value) pairs.
func sameArguments(a, b language.ArgumentList) bool {
	if len(a) != len(b) {
		return false
	}
	for _, arg := range a {
		other := b.ForName(arg.Name)
		if other == nil || !sameValue(arg.Value, other.Value) {
			return false
		}
	}
	return true
}

// sameValue compares two literal values structurally: lists element
// by element, objects by field name, variables by name only.
func sameValue(a, b *language.Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case language.ListValue:
		if len(a.Children) != len(b.Children) {
			return false
		}
		for i, child := range a.Children {
			if !sameValue(child.Value, b.Children[i].Value) {
				return false
			}
		}
		return true
	case language.ObjectValue:
		if len(a.Children) != len(b.Children) {
			return false
		}
		for _, child := range a.Children {
			match := childValueByName(b.Children, child.Name)
			if match == nil || !sameValue(child.Value, match) {
				return false
			}
		}
		return true
	default:
		return a.Raw == b.Raw
	}
}

func childValueByName(children language.ChildValueList, name string) *language.Value {
	for _, child := range children {
		if child.Name == name {
			return child.Value
		}
	}
	return nil
}

func (f *conflictFinder) report(c conflict) {
	locations := make([]language.ErrorLocation, 0, len(c.positions1)+len(c.positions2))
	for _, pos := range c.positions1 {
		locations = append(locations, errorLocation(pos))
	}
	for _, pos := range c.positions2 {
		locations = append(locations, errorLocation(pos))
	}
	f.errs = append(f.errs, &language.Error{
		Message: fmt.Sprintf(
			"Fields %q conflict because %s. Use different aliases on the fields to fetch both if this was intentional.",
			c.reason.responseKey, c.reason.describe()),
		Locations: locations,
		Rule:      "OverlappingFieldsCanBeMerged",
	})
}

func errorLocation(pos *language.Position) language.ErrorLocation {
	if pos == nil {
		return language.ErrorLocation{}
	}
	return language.ErrorLocation{Line: pos.Line, Column: pos.Column}
}
