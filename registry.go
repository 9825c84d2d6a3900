package camview

import (
	"sync"

	"github.com/google/uuid"
)

// SurfaceID is the non-owning handle the capture side keeps for a surface.
type SurfaceID string

// SurfaceRegistry maps identifiers to live display surfaces.
//
// Holding a SurfaceID never extends a surface's lifetime: once the owner
// calls Unregister, Resolve reports false and pending dispatches become no-ops.
type SurfaceRegistry struct {
	mu       sync.RWMutex
	surfaces map[SurfaceID]DisplaySurface
}

// NewSurfaceRegistry returns an empty registry.
func NewSurfaceRegistry() *SurfaceRegistry {
	return &SurfaceRegistry{surfaces: make(map[SurfaceID]DisplaySurface)}
}

// Register adds a surface and returns its identifier.
func (r *SurfaceRegistry) Register(s DisplaySurface) SurfaceID {
	id := SurfaceID(uuid.NewString())

	r.mu.Lock()
	r.surfaces[id] = s
	r.mu.Unlock()

	return id
}

// Resolve returns the surface for id, or false once it has been unregistered.
func (r *SurfaceRegistry) Resolve(id SurfaceID) (DisplaySurface, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.surfaces[id]
	return s, ok
}

// Unregister removes id. Idempotent.
func (r *SurfaceRegistry) Unregister(id SurfaceID) {
	r.mu.Lock()
	delete(r.surfaces, id)
	r.mu.Unlock()
}

// Len returns the number of live surfaces.
func (r *SurfaceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.surfaces)
}
