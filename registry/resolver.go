package registry

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// segment is one compiled dot-separated piece of a match identifier.
type segment struct {
	raw         string
	regex       *regexp.Regexp
	tags        []string
	unrestricted bool // plain "*" with no tag predicate
}

// Match is a single resolved (owning registry, local key) pair. Path is
// the full dotted identifier from the resolver's root to this entry,
// useful for correlating the same logical entry across structurally
// identical registry trees (e.g. matching parameters across per-worker
// networks during a merge).
type Match struct {
	Registry *Registry
	Key      string
	Path     string
}

// Value returns the value currently stored at the match's key.
func (m Match) Value() (any, bool) {
	return m.Registry.Get(m.Key)
}

type cacheEntry struct {
	matchID   string
	matches   []Match
	referred  map[*Registry]struct{}
	unmatched []string
}

// RegistryResolver binds to a root Registry and resolves wildcard/tag
// match identifiers against it, caching results until a hierarchy change
// invalidates them.
type RegistryResolver struct {
	root *Registry

	cacheMu sync.Mutex
	cache   map[string]*cacheEntry

	subMu       sync.Mutex
	subscribed  map[*Registry]struct{}
}

// NewResolver creates a resolver bound to root.
func NewResolver(root *Registry) *RegistryResolver {
	return &RegistryResolver{
		root:       root,
		cache:      make(map[string]*cacheEntry),
		subscribed: make(map[*Registry]struct{}),
	}
}

// Root returns the registry this resolver is bound to.
func (rv *RegistryResolver) Root() *Registry {
	return rv.root
}

// parseMatchIdentifier splits a dotted match identifier into segments,
// compiling each to an anchored regular expression. A segment is a
// literal, "*" (unrestricted wildcard), or "*<tag1,tag2>" (tag-predicate
// wildcard).
func parseMatchIdentifier(id string) ([]segment, error) {
	parts := strings.Split(id, ".")
	segs := make([]segment, 0, len(parts))

	for _, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, err
		}

		segs = append(segs, seg)
	}

	return segs, nil
}

func parseSegment(part string) (segment, error) {
	ltIdx := strings.IndexByte(part, '<')
	gtIdx := strings.IndexByte(part, '>')

	switch {
	case ltIdx < 0 && gtIdx < 0:
		if part == "*" {
			return segment{raw: part, regex: regexp.MustCompile(`^.*$`), unrestricted: true}, nil
		}

		return segment{raw: part, regex: regexp.MustCompile("^" + regexp.QuoteMeta(part) + "$")}, nil
	case ltIdx < 0 || gtIdx < 0 || gtIdx < ltIdx || !strings.HasSuffix(part, ">") || ltIdx == 0 && part[:1] != "*":
		return segment{}, ErrMalformedIdentifier
	default:
		prefix := part[:ltIdx]
		if prefix != "*" {
			return segment{}, ErrMalformedIdentifier
		}

		tagList := part[ltIdx+1 : gtIdx]
		if tagList == "" {
			return segment{}, ErrMalformedIdentifier
		}

		tags := strings.Split(tagList, ",")

		return segment{raw: part, regex: regexp.MustCompile(`^.*$`), tags: tags}, nil
	}
}

// Resolve evaluates matchID against the root registry, returning the
// ordered set of (registry, key) matches. Results are cached when
// non-empty and the last segment is not an unrestricted wildcard; a cache
// hit is invalidated automatically when a hierarchy change occurs on any
// registry the entry refers to.
func (rv *RegistryResolver) Resolve(matchID string) ([]Match, error) {
	rv.cacheMu.Lock()
	if entry, ok := rv.cache[matchID]; ok {
		rv.cacheMu.Unlock()

		out := make([]Match, len(entry.matches))
		copy(out, entry.matches)

		return out, nil
	}
	rv.cacheMu.Unlock()

	segs, err := parseMatchIdentifier(matchID)
	if err != nil {
		return nil, err
	}

	matches, referred, unmatched := rv.walk(segs)

	eligible := len(matches) > 0 && !segs[len(segs)-1].unrestricted
	if eligible {
		entry := &cacheEntry{matchID: matchID, matches: matches, referred: referred, unmatched: unmatched}
		rv.cacheMu.Lock()
		rv.cache[matchID] = entry
		rv.cacheMu.Unlock()

		rv.subscribeAll(referred)
	}

	out := make([]Match, len(matches))
	copy(out, matches)

	return out, nil
}

// ResolveSingle resolves matchID and returns its single result's current
// value. It fails with ErrNotFound if the match set is empty.
func (rv *RegistryResolver) ResolveSingle(matchID string) (any, error) {
	matches, err := rv.Resolve(matchID)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, ErrNotFound
	}

	v, _ := matches[0].Value()

	return v, nil
}

type candidate struct {
	registry *Registry
	path     string
}

func (rv *RegistryResolver) walk(segs []segment) ([]Match, map[*Registry]struct{}, []string) {
	candidates := []candidate{{registry: rv.root, path: ""}}

	var matches []Match

	var unmatched []string

	owningAncestors := make(map[*Registry]struct{})

	for level, seg := range segs {
		last := level == len(segs)-1

		var next []candidate

		for _, cur := range candidates {
			keys := cur.registry.Keys()
			sort.Strings(keys)

			matchedAny := false

			for _, key := range keys {
				if !seg.regex.MatchString(key) {
					continue
				}

				val, ok := cur.registry.Get(key)
				if !ok {
					continue
				}

				matchedAny = true
				fullPath := key
				if cur.path != "" {
					fullPath = cur.path + "." + key
				}

				if last {
					matches = append(matches, Match{Registry: cur.registry, Key: key, Path: fullPath})
					collectAncestors(cur.registry, owningAncestors)

					continue
				}

				childReg, isReg := val.(*Registry)
				if !isReg {
					continue
				}

				if !childReg.HasTags(seg.tags) {
					continue
				}

				next = append(next, candidate{registry: childReg, path: fullPath})
			}

			if !matchedAny {
				remainder := seg.raw
				if cur.path != "" {
					remainder = cur.path + "." + seg.raw
				}

				unmatched = append(unmatched, remainder)
			}
		}

		candidates = next

		if len(candidates) == 0 && !last {
			break
		}
	}

	return matches, owningAncestors, unmatched
}

func collectAncestors(r *Registry, into map[*Registry]struct{}) {
	for cur := r; cur != nil; cur = cur.Parent() {
		if _, ok := into[cur]; ok {
			return
		}

		into[cur] = struct{}{}
	}
}

func (rv *RegistryResolver) subscribeAll(referred map[*Registry]struct{}) {
	rv.subMu.Lock()
	defer rv.subMu.Unlock()

	for r := range referred {
		if _, ok := rv.subscribed[r]; ok {
			continue
		}

		rv.subscribed[r] = struct{}{}
		r.AddHierarchyListener(rv.onHierarchyChange(r))
	}
}

func (rv *RegistryResolver) onHierarchyChange(changed *Registry) HierarchyListener {
	return func(_ string, _ *Registry, _ any) {
		rv.cacheMu.Lock()
		defer rv.cacheMu.Unlock()

		for id, entry := range rv.cache {
			if _, ok := entry.referred[changed]; ok {
				delete(rv.cache, id)
			}
		}
	}
}

// InvalidateAll drops every cached entry. Exposed for tests and for
// collaborators that make bulk structural changes outside of Set/Remove.
func (rv *RegistryResolver) InvalidateAll() {
	rv.cacheMu.Lock()
	defer rv.cacheMu.Unlock()

	rv.cache = make(map[string]*cacheEntry)
}
