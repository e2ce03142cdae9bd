package roost

// Model defines the shape of a document stored in a collection. Custom types
// must implement the interface by embedding the Base type and providing the
// collection name.
type Model interface {
	// ID returns the primary id.
	ID() ID

	// GetBase returns the models base.
	GetBase() *Base

	// Collection returns the collection name.
	Collection() string
}

// Base is the base for every roost model.
type Base struct {
	DocID ID `json:"id" bson:"_id,omitempty"`
}

// B is a shorthand to construct a base with the provided id or a generated
// id if none is specified.
func B(id ...ID) Base {
	// check list
	if len(id) > 1 {
		panic("roost: B accepts only one id")
	}

	// use provided id if available
	if len(id) > 0 {
		return Base{
			DocID: id[0],
		}
	}

	return Base{
		DocID: New(),
	}
}

// ID implements the Model interface.
func (b *Base) ID() ID {
	return b.DocID
}

// GetBase implements the Model interface.
func (b *Base) GetBase() *Base {
	return b
}
