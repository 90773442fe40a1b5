package types

// Equals is structural equality (spec §4.3): actors/structs compare by
// name, fn/array/optional compare component-wise, everything else by
// kind.
func Equals(a, b *Type) bool {
	a, b = Resolve(a), Resolve(b)
	if a == b {
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Actor, Struct:
		return a.Name == b.Name
	case Fn:
		if len(a.Params) != len(b.Params) || !Equals(a.Return, b.Return) {
			return false
		}
		for i := range a.Params {
			if !Equals(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	case Array, Optional:
		return Equals(a.Elem, b.Elem)
	case Process:
		if a.Elem == nil || b.Elem == nil {
			return true
		}
		return Equals(a.Elem, b.Elem)
	default:
		return true
	}
}

func occurs(v *Type, t *Type) bool {
	t = Resolve(t)
	if t == v {
		return true
	}
	switch t.Kind {
	case Fn:
		for _, p := range t.Params {
			if occurs(v, p) {
				return true
			}
		}
		return occurs(v, t.Return)
	case Array, Optional, Process:
		return t.Elem != nil && occurs(v, t.Elem)
	}
	return false
}

// Unify implements Robinson unification (spec §4.3): the error type
// unifies with anything; a type variable binds to the other side after
// an occurs check; identical kinds recurse structurally; otherwise
// unification fails. Returns false on failure (the caller typically
// substitutes ErrorT to suppress cascades, per spec §7).
func Unify(a, b *Type) bool {
	a, b = Resolve(a), Resolve(b)
	if a == b {
		return true
	}
	if a.Kind == Error || b.Kind == Error {
		return true
	}
	if a.Kind == Var {
		if occurs(a, b) {
			return false
		}
		a.instance = b
		return true
	}
	if b.Kind == Var {
		if occurs(b, a) {
			return false
		}
		b.instance = a
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Actor, Struct:
		return a.Name == b.Name
	case Fn:
		if len(a.Params) != len(b.Params) {
			return false
		}
		ok := true
		for i := range a.Params {
			ok = Unify(a.Params[i], b.Params[i]) && ok
		}
		return Unify(a.Return, b.Return) && ok
	case Array, Optional:
		return Unify(a.Elem, b.Elem)
	case Process:
		if a.Elem == nil {
			a.Elem = b.Elem
			return true
		}
		if b.Elem == nil {
			return true
		}
		return Unify(a.Elem, b.Elem)
	default:
		return true
	}
}
