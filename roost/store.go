// Package roost provides a thin document store layer for MongoDB that is
// interchangeable with an embedded in-memory engine.
package roost

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/256dpi/lungo"
	"github.com/256dpi/xo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MustConnect will call Connect and panic on errors.
func MustConnect(uri string) *Store {
	// connect store
	store, err := Connect(uri)
	if err != nil {
		panic(err)
	}

	return store
}

// Connect will connect to the database specified by the URI and return a new
// store. The path of the URI is used as the default database.
func Connect(uri string) (*Store, error) {
	// parse url
	parsedURL, err := url.Parse(uri)
	if err != nil {
		return nil, xo.W(err)
	}

	// get default db
	defaultDB := strings.Trim(parsedURL.Path, "/")

	// prepare options
	opts := options.Client().ApplyURI(uri)

	// create client
	client, err := mongo.Connect(context.Background(), opts)
	if err != nil {
		return nil, xo.W(err)
	}

	// ping server
	err = client.Ping(context.Background(), nil)
	if err != nil {
		return nil, xo.W(err)
	}

	return NewStore(&lungo.MongoClient{Client: client}, defaultDB, nil), nil
}

// MustOpen will call Open and panic on errors.
func MustOpen(store lungo.Store, defaultDB string) *Store {
	// open store
	s, err := Open(store, defaultDB)
	if err != nil {
		panic(err)
	}

	return s
}

// Open will open the database using the provided lungo store. If no store is
// provided an in-memory store is used.
func Open(store lungo.Store, defaultDB string) (*Store, error) {
	// ensure store
	if store == nil {
		store = lungo.NewMemoryStore()
	}

	// open database
	client, engine, err := lungo.Open(nil, lungo.Options{
		Store: store,
	})
	if err != nil {
		return nil, xo.W(err)
	}

	return NewStore(client, defaultDB, engine), nil
}

// NewStore creates and returns a new store.
func NewStore(client lungo.IClient, defaultDB string, engine *lungo.Engine) *Store {
	return &Store{
		Client:    client,
		DefaultDB: defaultDB,
		Engine:    engine,
	}
}

// A Store manages the usage of a database client.
type Store struct {
	// The client used by the store.
	Client lungo.IClient

	// The default database used by the store.
	DefaultDB string

	// The engine if the store is backed by the embedded engine.
	Engine *lungo.Engine
}

// Lungo returns whether the store is backed by the embedded engine.
func (s *Store) Lungo() bool {
	return s.Engine != nil
}

// DB returns the default database used by the store.
func (s *Store) DB() lungo.IDatabase {
	return s.Client.Database(s.DefaultDB)
}

// C will return the collection associated to the passed model.
func (s *Store) C(model Model) lungo.ICollection {
	return s.DB().Collection(model.Collection())
}

// Close will close the store and its associated client and engine.
func (s *Store) Close() error {
	// disconnect client
	err := s.Client.Disconnect(nil)
	if err != nil {
		return xo.W(err)
	}

	// close engine
	if s.Engine != nil {
		s.Engine.Close()
	}

	return nil
}

// IsMissing returns whether the provided error describes a missing document.
func IsMissing(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
