package core

// Routing inspects the first two characters of a product code. Prefixes
// are exact and case-sensitive; anything shorter or unknown goes to the
// fallback destination.
const prefixLen = 2

type Route struct {
	Prefix      string
	Destination Destination
}

type Router struct {
	routes   map[string]Destination
	fallback Destination
}

func NewRouter(routes []Route, fallback Destination) *Router {
	m := make(map[string]Destination, len(routes))
	for _, r := range routes {
		m[r.Prefix] = r.Destination
	}
	return &Router{routes: m, fallback: fallback}
}

func (r *Router) Route(code string) Destination {
	if len(code) >= prefixLen {
		if dest, ok := r.routes[code[:prefixLen]]; ok {
			return dest
		}
	}
	return r.fallback
}

func (r *Router) Fallback() Destination {
	return r.fallback
}
