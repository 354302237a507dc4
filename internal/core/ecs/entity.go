package ecs

// EntityID identifies an entity for its whole lifetime. IDs increase
// monotonically and are never reused; zero is never issued.
type EntityID uint64

func (id EntityID) IsZero() bool { return id == 0 }

// EntityPool allocates entity IDs and tracks which are alive.
type EntityPool struct {
	alive  map[EntityID]struct{}
	nextID EntityID
}

func NewEntityPool() *EntityPool {
	return &EntityPool{
		alive:  make(map[EntityID]struct{}, 64),
		nextID: 1,
	}
}

func (p *EntityPool) Create() EntityID {
	id := p.nextID
	p.nextID++
	p.alive[id] = struct{}{}
	return id
}

func (p *EntityPool) Alive(id EntityID) bool {
	_, ok := p.alive[id]
	return ok
}

// Destroy marks id dead. Destroying a dead or unknown id is a no-op.
func (p *EntityPool) Destroy(id EntityID) {
	delete(p.alive, id)
}

// Last returns the most recently issued ID, or zero.
func (p *EntityPool) Last() EntityID {
	return p.nextID - 1
}

// Len returns the number of live entities.
func (p *EntityPool) Len() int {
	return len(p.alive)
}
