package matrix

// Resolver maps raw unit codes to the code shown in a collapsed view: the
// outermost open fact that contains the unit, or the unit itself.
//
// A Resolver is bound to one store state and one open set; build a new one
// after either changes.
type Resolver struct {
	open        map[string]bool
	openOrder   []string
	members     map[string][]string // fact -> direct members
	containedIn map[string][]string // fact -> facts listing it as a member
	cache       map[string]string
}

// NewResolver indexes the facts of s for the given open set. Codes in open
// that are not facts of s are ignored.
func NewResolver(s *Store, open []string) *Resolver {
	r := &Resolver{
		open:        make(map[string]bool, len(open)),
		members:     make(map[string][]string),
		containedIn: make(map[string][]string),
		cache:       make(map[string]string),
	}
	for _, code := range s.Facts() {
		u, _ := s.Get(code)
		r.members[code] = u.Members
	}
	for fact, members := range r.members {
		for _, m := range members {
			if _, isFact := r.members[m]; isFact {
				r.containedIn[m] = append(r.containedIn[m], fact)
			}
		}
	}
	// Iterate the store's fact order so results never depend on the order
	// the caller listed open facts in.
	for _, code := range s.Facts() {
		if contains(open, code) {
			r.open[code] = true
			r.openOrder = append(r.openOrder, code)
		}
	}
	return r
}

// Open returns the open facts the resolver honours, in store order.
func (r *Resolver) Open() []string { return cloneList(r.openOrder) }

// Resolve returns the code displayed in place of code.
func (r *Resolver) Resolve(code string) string {
	if v, ok := r.cache[code]; ok {
		return v
	}
	v := r.resolve(code)
	r.cache[code] = v
	return v
}

func (r *Resolver) resolve(target string) string {
	if len(r.openOrder) == 0 {
		return target
	}

	// Open facts whose member tree (expanded through nested facts) holds
	// the target.
	found := make(map[string]bool)
	for _, fact := range r.openOrder {
		if r.containsTransitively(fact, target) {
			found[fact] = true
		}
	}
	if len(found) == 0 {
		return target
	}

	// Climb through enclosing open facts: any found fact with an open
	// container is replaced by it, until only outermost facts remain.
	queue := make([]string, 0, len(found))
	for _, fact := range r.openOrder {
		if found[fact] {
			queue = append(queue, fact)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, container := range r.containedIn[cur] {
			if !r.open[container] {
				continue
			}
			delete(found, cur)
			if !found[container] {
				found[container] = true
				queue = append(queue, container)
			}
		}
	}
	// An open fact may still sit inside another found fact through a closed
	// intermediate; keep the outer one.
	for _, fact := range r.openOrder {
		if !found[fact] {
			continue
		}
		outer := true
		for _, other := range r.openOrder {
			if other != fact && found[other] && r.containsTransitively(other, fact) {
				outer = false
				break
			}
		}
		if outer {
			return fact
		}
	}
	return target
}

// containsTransitively runs a breadth-first search over the member tree of
// fact, descending into members that are facts themselves.
func (r *Resolver) containsTransitively(fact, target string) bool {
	seen := map[string]bool{fact: true}
	queue := []string{fact}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, m := range r.members[cur] {
			if m == target {
				return true
			}
			if _, isFact := r.members[m]; isFact && !seen[m] {
				seen[m] = true
				queue = append(queue, m)
			}
		}
	}
	return false
}

// ResolveVisibleCode resolves a single code against an explicit open set.
func ResolveVisibleCode(s *Store, open []string, code string) string {
	return NewResolver(s, open).Resolve(code)
}
