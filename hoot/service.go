package hoot

import (
	"context"
	"time"

	"dario.cat/mergo"
	"github.com/256dpi/xo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hootbox/hootbox/roost"
)

// Identity describes a verified caller.
type Identity struct {
	ID   roost.ID
	Name string
}

// CommentPolicy controls who may update or delete comments.
type CommentPolicy int

const (
	// CommentPolicyOpen allows any authenticated user to update or delete any
	// comment. This matches the observed behavior of the original system
	// where only hoots are guarded by authorship.
	CommentPolicyOpen CommentPolicy = iota

	// CommentPolicyOwner restricts comment updates and deletes to the comment
	// author.
	CommentPolicyOwner
)

// Directory resolves user ids to identities. It is optional: without one the
// service only attaches the identity of the current caller.
type Directory func(ctx context.Context, id roost.ID) (Identity, bool)

// Service implements the hoot operations on top of a store.
//
// Comments are part of the hoot aggregate and are always mutated by loading
// and re-saving the owning document. Concurrent mutations of the same hoot
// are therefore last-writer-wins.
type Service struct {
	// The store used for persistence.
	Store *roost.Store

	// The comment mutation policy.
	//
	// Default: CommentPolicyOpen.
	CommentPolicy CommentPolicy

	// An optional directory used to attach author identities on reads.
	Directory Directory
}

// NewService creates and returns a new service using the provided store.
func NewService(store *roost.Store) *Service {
	return &Service{
		Store: store,
	}
}

// CreateRequest describes the fields accepted when creating a hoot.
type CreateRequest struct {
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Category Category `json:"category"`
}

// UpdateRequest describes the fields accepted when updating a hoot. Zero
// fields leave the stored value untouched. The author cannot be changed.
type UpdateRequest struct {
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Category Category `json:"category"`
}

// CommentRequest describes the fields accepted when creating or updating a
// comment.
type CommentRequest struct {
	Text string `json:"text"`
}

// Create will create a new hoot authored by the caller.
func (s *Service) Create(ctx context.Context, caller Identity, req CreateRequest) (*Hoot, error) {
	// check caller
	if caller.ID.IsZero() {
		return nil, E(KindUnauthenticated, "missing identity")
	}

	// prepare hoot
	now := time.Now().UTC()
	hoot := &Hoot{
		Base:     roost.B(),
		Title:    req.Title,
		Text:     req.Text,
		Category: req.Category,
		Author:   caller.ID,
		Comments: []Comment{},
		Created:  now,
		Updated:  now,
	}

	// validate hoot
	err := hoot.Validate()
	if err != nil {
		return nil, err
	}

	// insert hoot
	_, err = s.Store.C(hoot).InsertOne(ctx, hoot)
	if err != nil {
		return nil, StoreError(err)
	}

	// attach caller identity
	hoot.AuthorName = caller.Name

	return hoot, nil
}

// List will return all hoots, newest first.
func (s *Service) List(ctx context.Context) ([]*Hoot, error) {
	// find all hoots
	csr, err := s.Store.C(&Hoot{}).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{
		{Key: "created", Value: -1},
		{Key: "_id", Value: -1},
	}))
	if err != nil {
		return nil, StoreError(err)
	}

	// decode all hoots
	list := make([]*Hoot, 0)
	err = csr.All(ctx, &list)
	if err != nil {
		return nil, StoreError(err)
	}

	// attach author identities
	for _, hoot := range list {
		s.attach(ctx, hoot)
	}

	return list, nil
}

// Get will return the hoot with the specified id.
func (s *Service) Get(ctx context.Context, id roost.ID) (*Hoot, error) {
	// find hoot
	hoot, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	// attach author identities
	s.attach(ctx, hoot)

	return hoot, nil
}

// Update will merge the submitted fields over the stored hoot and persist it.
// Only the author may update a hoot and the author itself is never changed.
func (s *Service) Update(ctx context.Context, caller Identity, id roost.ID, req UpdateRequest) (*Hoot, error) {
	// check caller
	if caller.ID.IsZero() {
		return nil, E(KindUnauthenticated, "missing identity")
	}

	// find hoot
	hoot, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	// check authorship
	if hoot.Author != caller.ID {
		return nil, E(KindForbidden, "only the author may update a hoot")
	}

	// merge submitted fields
	err = mergo.Merge(hoot, Hoot{
		Title:    req.Title,
		Text:     req.Text,
		Category: req.Category,
	}, mergo.WithOverride)
	if err != nil {
		return nil, xo.W(err)
	}

	// set timestamp
	hoot.Updated = time.Now().UTC()

	// validate hoot
	err = hoot.Validate()
	if err != nil {
		return nil, err
	}

	// replace hoot
	_, err = s.Store.C(hoot).ReplaceOne(ctx, bson.M{
		"_id": hoot.DocID,
	}, hoot)
	if err != nil {
		return nil, StoreError(err)
	}

	// attach caller identity
	hoot.AuthorName = caller.Name

	return hoot, nil
}

// Delete will remove the hoot and its embedded comments. Only the author may
// delete a hoot.
func (s *Service) Delete(ctx context.Context, caller Identity, id roost.ID) (*Hoot, error) {
	// check caller
	if caller.ID.IsZero() {
		return nil, E(KindUnauthenticated, "missing identity")
	}

	// find hoot
	hoot, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	// check authorship
	if hoot.Author != caller.ID {
		return nil, E(KindForbidden, "only the author may delete a hoot")
	}

	// delete hoot
	_, err = s.Store.C(hoot).DeleteOne(ctx, bson.M{
		"_id": hoot.DocID,
	})
	if err != nil {
		return nil, StoreError(err)
	}

	return hoot, nil
}

// AddComment will append a new comment authored by the caller to the end of
// the hoots comment sequence. Any authenticated user may comment.
func (s *Service) AddComment(ctx context.Context, caller Identity, id roost.ID, req CommentRequest) (*Comment, error) {
	// check caller
	if caller.ID.IsZero() {
		return nil, E(KindUnauthenticated, "missing identity")
	}

	// check text
	if req.Text == "" {
		return nil, E(KindValidation, "missing text")
	}

	// find hoot
	hoot, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	// prepare comment
	now := time.Now().UTC()
	comment := Comment{
		ID:      roost.New(),
		Text:    req.Text,
		Author:  caller.ID,
		Created: now,
		Updated: now,
	}

	// append comment
	hoot.Comments = append(hoot.Comments, comment)
	hoot.Updated = now

	// save hoot
	err = s.save(ctx, hoot)
	if err != nil {
		return nil, err
	}

	// attach caller identity
	comment.AuthorName = caller.Name

	return &comment, nil
}

// UpdateComment will replace the text of the specified comment.
func (s *Service) UpdateComment(ctx context.Context, caller Identity, id, commentID roost.ID, req CommentRequest) error {
	// check caller
	if caller.ID.IsZero() {
		return E(KindUnauthenticated, "missing identity")
	}

	// check text
	if req.Text == "" {
		return E(KindValidation, "missing text")
	}

	// find hoot
	hoot, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	// locate comment
	comment := hoot.comment(commentID)
	if comment == nil {
		return E(KindNotFound, "comment not found")
	}

	// check policy
	if s.CommentPolicy == CommentPolicyOwner && comment.Author != caller.ID {
		return E(KindForbidden, "only the author may update a comment")
	}

	// update comment
	now := time.Now().UTC()
	comment.Text = req.Text
	comment.Updated = now
	hoot.Updated = now

	// save hoot
	return s.save(ctx, hoot)
}

// DeleteComment will remove the specified comment from the hoots comment
// sequence. The order of the remaining comments is preserved.
func (s *Service) DeleteComment(ctx context.Context, caller Identity, id, commentID roost.ID) error {
	// check caller
	if caller.ID.IsZero() {
		return E(KindUnauthenticated, "missing identity")
	}

	// find hoot
	hoot, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	// locate comment
	comment := hoot.comment(commentID)
	if comment == nil {
		return E(KindNotFound, "comment not found")
	}

	// check policy
	if s.CommentPolicy == CommentPolicyOwner && comment.Author != caller.ID {
		return E(KindForbidden, "only the author may delete a comment")
	}

	// remove comment
	comments := make([]Comment, 0, len(hoot.Comments)-1)
	for _, item := range hoot.Comments {
		if item.ID != commentID {
			comments = append(comments, item)
		}
	}
	hoot.Comments = comments
	hoot.Updated = time.Now().UTC()

	// save hoot
	return s.save(ctx, hoot)
}

// comment returns the embedded comment with the specified id.
func (h *Hoot) comment(id roost.ID) *Comment {
	for i := range h.Comments {
		if h.Comments[i].ID == id {
			return &h.Comments[i]
		}
	}

	return nil
}

// find loads the hoot with the specified id.
func (s *Service) find(ctx context.Context, id roost.ID) (*Hoot, error) {
	// find hoot
	var hoot Hoot
	err := s.Store.C(&hoot).FindOne(ctx, bson.M{
		"_id": id,
	}).Decode(&hoot)
	if err != nil && roost.IsMissing(err) {
		return nil, E(KindNotFound, "hoot not found")
	} else if err != nil {
		return nil, StoreError(err)
	}

	return &hoot, nil
}

// save re-saves the whole aggregate.
func (s *Service) save(ctx context.Context, hoot *Hoot) error {
	// replace hoot
	_, err := s.Store.C(hoot).ReplaceOne(ctx, bson.M{
		"_id": hoot.DocID,
	}, hoot)
	if err != nil {
		return StoreError(err)
	}

	return nil
}

// attach will attach author identities using the directory if available.
func (s *Service) attach(ctx context.Context, hoot *Hoot) {
	// check directory
	if s.Directory == nil {
		return
	}

	// resolve hoot author
	if identity, ok := s.Directory(ctx, hoot.Author); ok {
		hoot.AuthorName = identity.Name
	}

	// resolve comment authors
	for i := range hoot.Comments {
		if identity, ok := s.Directory(ctx, hoot.Comments[i].Author); ok {
			hoot.Comments[i].AuthorName = identity.Name
		}
	}
}
