package entity

// AuxData is opaque, type-specific state attached to an entity by a game
// module. Each registered aux type supplies its own copy and serialization
// contract; the engine core only moves the blobs around.
type AuxData interface {
	Copy() AuxData
	Store() map[string]any
	Load(set map[string]any)
}

// AuxRegistry holds the factories for every installed auxiliary-data type.
// Entities created after a type is installed carry a fresh instance of it.
type AuxRegistry struct {
	factories map[string]func() AuxData
	order     []string
}

// NewAuxRegistry creates an empty AuxRegistry.
func NewAuxRegistry() *AuxRegistry {
	return &AuxRegistry{factories: make(map[string]func() AuxData)}
}

// Install registers an auxiliary-data type under the given name. Installing
// the same name twice replaces the factory.
func (ar *AuxRegistry) Install(name string, factory func() AuxData) {
	if _, ok := ar.factories[name]; !ok {
		ar.order = append(ar.order, name)
	}
	ar.factories[name] = factory
}

// Names returns the installed type names in installation order.
func (ar *AuxRegistry) Names() []string {
	out := make([]string, len(ar.order))
	copy(out, ar.order)
	return out
}

// newSet builds a fresh aux-data set for a newly created entity.
func (ar *AuxRegistry) newSet() map[string]AuxData {
	set := make(map[string]AuxData, len(ar.factories))
	for name, f := range ar.factories {
		set[name] = f()
	}
	return set
}
