package roost

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// A Tester provides facilities to prepare and inspect the database in tests.
type Tester struct {
	// The store used for accessing the database.
	Store *Store

	// The registered models.
	Models []Model
}

// NewTester returns a new tester.
func NewTester(store *Store, models ...Model) *Tester {
	return &Tester{
		Store:  store,
		Models: models,
	}
}

// Clean will remove the collections of models that have been registered.
func (t *Tester) Clean() {
	for _, model := range t.Models {
		// remove all is faster than dropping the collection
		_, err := t.Store.C(model).DeleteMany(context.Background(), bson.M{})
		if err != nil {
			panic(err)
		}
	}
}

// Save will save the specified model.
func (t *Tester) Save(model Model) Model {
	// ensure id
	if model.GetBase().DocID.IsZero() {
		model.GetBase().DocID = New()
	}

	// insert to collection
	_, err := t.Store.C(model).InsertOne(context.Background(), model)
	if err != nil {
		panic(err)
	}

	return model
}

// Fetch will return the saved model with the specified id.
func (t *Tester) Fetch(model Model, id ID) Model {
	// find specific document
	err := t.Store.C(model).FindOne(context.Background(), bson.M{
		"_id": id,
	}).Decode(model)
	if err != nil {
		panic(err)
	}

	return model
}

// FindAll will decode all saved models into the provided slice pointer,
// sorted by id.
func (t *Tester) FindAll(model Model, list interface{}) {
	// find all documents
	csr, err := t.Store.C(model).Find(context.Background(), bson.M{}, options.Find().SetSort(bson.M{
		"_id": 1,
	}))
	if err != nil {
		panic(err)
	}

	// get all results
	err = csr.All(context.Background(), list)
	if err != nil {
		panic(err)
	}
}

// Count will count the saved models.
func (t *Tester) Count(model Model) int64 {
	// count documents
	count, err := t.Store.C(model).CountDocuments(context.Background(), bson.M{})
	if err != nil {
		panic(err)
	}

	return count
}

// Delete will delete the specified model.
func (t *Tester) Delete(model Model) {
	// delete from collection
	_, err := t.Store.C(model).DeleteOne(context.Background(), bson.M{
		"_id": model.ID(),
	})
	if err != nil {
		panic(err)
	}
}
