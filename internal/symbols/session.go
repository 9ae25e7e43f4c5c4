package symbols

import (
	"github.com/funvibe/givens/internal/config"
	"github.com/google/uuid"
	"strconv"
	"sync"
)

type cacheKey struct {
	kind string
	key  string
}

// Session holds the state shared by all scopes of one resolution: a cache
// keyed by (kind, key), the module member registry and the unique id
// counter. Nothing in a session outlives the resolution it was created for.
type Session struct {
	// ID tags the resolver log lines of this session.
	ID uuid.UUID

	mu      sync.Mutex
	cache   map[cacheKey]any
	modules map[string][]*Callable
	counter int
}

func NewSession() *Session {
	return &Session{
		ID:      uuid.New(),
		cache:   make(map[cacheKey]any),
		modules: make(map[string][]*Callable),
	}
}

// Cache returns the value stored under (kind, key), computing and storing
// it on first use. compute runs without the session lock held and may use
// the cache itself.
func (s *Session) Cache(kind, key string, compute func() any) any {
	k := cacheKey{kind, key}
	s.mu.Lock()
	if v, ok := s.cache[k]; ok {
		s.mu.Unlock()
		return v
	}
	s.mu.Unlock()

	v := compute()

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cache[k]; ok {
		return existing
	}
	s.cache[k] = v
	return v
}

// Cached is the typed form of Session.Cache.
func Cached[T any](s *Session, kind, key string, compute func() T) T {
	return s.Cache(kind, key, func() any { return compute() }).(T)
}

// NextUniqueID returns a new id for pinning a type to one callable. Ids are
// sequential so that repeated runs produce identical results.
func (s *Session) NextUniqueID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return config.ElementKeyPrefix + strconv.Itoa(s.counter)
}

// RegisterModule records the member callables of a module classifier. When a
// callable providing that classifier enters a scope its members follow.
func (s *Session) RegisterModule(classifierKey string, members ...*Callable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[classifierKey] = append(s.modules[classifierKey], members...)
}

func (s *Session) ModuleMembers(classifierKey string) []*Callable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modules[classifierKey]
}
