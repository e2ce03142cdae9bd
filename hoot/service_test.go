package hoot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hootbox/hootbox/roost"
)

var store = roost.MustOpen(nil, "test")

var tester = roost.NewTester(store, &Hoot{})

func user(name string) Identity {
	return Identity{
		ID:   roost.New(),
		Name: name,
	}
}

func TestCreate(t *testing.T) {
	tester.Clean()

	owl := user("Owl")

	hoot, err := NewService(store).Create(nil, owl, CreateRequest{
		Title:    "First",
		Text:     "Hello!",
		Category: News,
	})
	require.NoError(t, err)
	assert.False(t, hoot.DocID.IsZero())
	assert.Equal(t, owl.ID, hoot.Author)
	assert.Equal(t, "Owl", hoot.AuthorName)
	assert.Equal(t, []Comment{}, hoot.Comments)
	assert.False(t, hoot.Created.IsZero())
	assert.Equal(t, hoot.Created, hoot.Updated)

	// hoot has been persisted
	var stored Hoot
	tester.Fetch(&stored, hoot.DocID)
	assert.Equal(t, "First", stored.Title)
	assert.Equal(t, owl.ID, stored.Author)
}

func TestCreateValidation(t *testing.T) {
	tester.Clean()

	service := NewService(store)

	table := []CreateRequest{
		{Text: "no title", Category: News},
		{Title: "no text", Category: News},
		{Title: "t", Text: "x", Category: "Gardening"},
		{Title: "t", Text: "x"},
	}
	for _, req := range table {
		hoot, err := service.Create(nil, user("Owl"), req)
		assert.Nil(t, hoot)
		assert.True(t, IsKind(err, KindValidation), "%+v", req)
	}

	// nothing has been persisted
	assert.Equal(t, int64(0), tester.Count(&Hoot{}))

	// missing identity
	hoot, err := service.Create(nil, Identity{}, CreateRequest{
		Title:    "t",
		Text:     "x",
		Category: News,
	})
	assert.Nil(t, hoot)
	assert.True(t, IsKind(err, KindUnauthenticated))
}

func TestList(t *testing.T) {
	tester.Clean()

	service := NewService(store)
	owl := user("Owl")

	first, err := service.Create(nil, owl, CreateRequest{Title: "a", Text: "x", Category: News})
	require.NoError(t, err)
	second, err := service.Create(nil, owl, CreateRequest{Title: "b", Text: "x", Category: Music})
	require.NoError(t, err)

	// newest first
	list, err := service.List(nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.DocID, list[0].DocID)
	assert.Equal(t, first.DocID, list[1].DocID)

	// a new hoot moves to the front
	third, err := service.Create(nil, owl, CreateRequest{Title: "c", Text: "x", Category: Games})
	require.NoError(t, err)
	list, err = service.List(nil)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, third.DocID, list[0].DocID)
}

func TestGet(t *testing.T) {
	tester.Clean()

	service := NewService(store)

	// missing hoot
	found, err := service.Get(nil, roost.New())
	assert.Nil(t, found)
	assert.True(t, IsKind(err, KindNotFound))

	// existing hoot
	created, err := service.Create(nil, user("Owl"), CreateRequest{Title: "a", Text: "x", Category: News})
	require.NoError(t, err)
	found, err = service.Get(nil, created.DocID)
	require.NoError(t, err)
	assert.Equal(t, created.DocID, found.DocID)
	assert.Equal(t, "a", found.Title)
}

func TestUpdate(t *testing.T) {
	tester.Clean()

	service := NewService(store)
	owl := user("Owl")
	crow := user("Crow")

	created, err := service.Create(nil, owl, CreateRequest{Title: "a", Text: "x", Category: News})
	require.NoError(t, err)

	// missing hoot
	updated, err := service.Update(nil, owl, roost.New(), UpdateRequest{Title: "b"})
	assert.Nil(t, updated)
	assert.True(t, IsKind(err, KindNotFound))

	// not the author
	updated, err = service.Update(nil, crow, created.DocID, UpdateRequest{Title: "b"})
	assert.Nil(t, updated)
	assert.True(t, IsKind(err, KindForbidden))

	// hoot is unchanged
	var stored Hoot
	tester.Fetch(&stored, created.DocID)
	assert.Equal(t, "a", stored.Title)

	// partial update leaves unsubmitted fields untouched
	time.Sleep(10 * time.Millisecond)
	updated, err = service.Update(nil, owl, created.DocID, UpdateRequest{Title: "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", updated.Title)
	assert.Equal(t, "x", updated.Text)
	assert.Equal(t, News, updated.Category)
	assert.Equal(t, owl.ID, updated.Author)
	assert.True(t, updated.Updated.After(updated.Created))

	// invalid category
	updated, err = service.Update(nil, owl, created.DocID, UpdateRequest{Category: "Gardening"})
	assert.Nil(t, updated)
	assert.True(t, IsKind(err, KindValidation))
}

func TestDelete(t *testing.T) {
	tester.Clean()

	service := NewService(store)
	owl := user("Owl")
	crow := user("Crow")

	created, err := service.Create(nil, owl, CreateRequest{Title: "a", Text: "x", Category: News})
	require.NoError(t, err)

	// missing hoot
	deleted, err := service.Delete(nil, owl, roost.New())
	assert.Nil(t, deleted)
	assert.True(t, IsKind(err, KindNotFound))

	// not the author
	deleted, err = service.Delete(nil, crow, created.DocID)
	assert.Nil(t, deleted)
	assert.True(t, IsKind(err, KindForbidden))
	assert.Equal(t, int64(1), tester.Count(&Hoot{}))

	// the author may delete
	deleted, err = service.Delete(nil, owl, created.DocID)
	require.NoError(t, err)
	assert.Equal(t, created.DocID, deleted.DocID)
	assert.Equal(t, int64(0), tester.Count(&Hoot{}))

	// hoot is gone
	found, err := service.Get(nil, created.DocID)
	assert.Nil(t, found)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestAddComment(t *testing.T) {
	tester.Clean()

	service := NewService(store)
	owl := user("Owl")
	crow := user("Crow")

	created, err := service.Create(nil, owl, CreateRequest{Title: "a", Text: "x", Category: News})
	require.NoError(t, err)

	// missing hoot
	comment, err := service.AddComment(nil, crow, roost.New(), CommentRequest{Text: "hi"})
	assert.Nil(t, comment)
	assert.True(t, IsKind(err, KindNotFound))

	// missing text
	comment, err = service.AddComment(nil, crow, created.DocID, CommentRequest{})
	assert.Nil(t, comment)
	assert.True(t, IsKind(err, KindValidation))

	// any authenticated user may comment
	comment, err = service.AddComment(nil, crow, created.DocID, CommentRequest{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, crow.ID, comment.Author)
	assert.Equal(t, "Crow", comment.AuthorName)

	// identical input appends a second distinct comment
	again, err := service.AddComment(nil, crow, created.DocID, CommentRequest{Text: "hi"})
	require.NoError(t, err)
	assert.NotEqual(t, comment.ID, again.ID)

	// both are present in call order
	var stored Hoot
	tester.Fetch(&stored, created.DocID)
	require.Len(t, stored.Comments, 2)
	assert.Equal(t, comment.ID, stored.Comments[0].ID)
	assert.Equal(t, again.ID, stored.Comments[1].ID)
}

func TestUpdateComment(t *testing.T) {
	tester.Clean()

	service := NewService(store)
	owl := user("Owl")
	crow := user("Crow")

	created, err := service.Create(nil, owl, CreateRequest{Title: "a", Text: "x", Category: News})
	require.NoError(t, err)
	first, err := service.AddComment(nil, owl, created.DocID, CommentRequest{Text: "one"})
	require.NoError(t, err)
	second, err := service.AddComment(nil, crow, created.DocID, CommentRequest{Text: "two"})
	require.NoError(t, err)

	// missing hoot
	err = service.UpdateComment(nil, crow, roost.New(), first.ID, CommentRequest{Text: "new"})
	assert.True(t, IsKind(err, KindNotFound))

	// missing comment
	err = service.UpdateComment(nil, crow, created.DocID, roost.New(), CommentRequest{Text: "new"})
	assert.True(t, IsKind(err, KindNotFound))

	// missing text
	err = service.UpdateComment(nil, crow, created.DocID, first.ID, CommentRequest{})
	assert.True(t, IsKind(err, KindValidation))

	// by default any authenticated user may update any comment
	time.Sleep(10 * time.Millisecond)
	err = service.UpdateComment(nil, crow, created.DocID, first.ID, CommentRequest{Text: "new"})
	require.NoError(t, err)

	// only the targeted comment has changed
	var stored Hoot
	tester.Fetch(&stored, created.DocID)
	require.Len(t, stored.Comments, 2)
	assert.Equal(t, "new", stored.Comments[0].Text)
	assert.True(t, stored.Comments[0].Updated.After(stored.Comments[0].Created))
	assert.Equal(t, "two", stored.Comments[1].Text)
	assert.Equal(t, second.ID, stored.Comments[1].ID)
}

func TestDeleteComment(t *testing.T) {
	tester.Clean()

	service := NewService(store)
	owl := user("Owl")

	created, err := service.Create(nil, owl, CreateRequest{Title: "a", Text: "x", Category: News})
	require.NoError(t, err)
	first, err := service.AddComment(nil, owl, created.DocID, CommentRequest{Text: "one"})
	require.NoError(t, err)
	second, err := service.AddComment(nil, owl, created.DocID, CommentRequest{Text: "two"})
	require.NoError(t, err)
	third, err := service.AddComment(nil, owl, created.DocID, CommentRequest{Text: "three"})
	require.NoError(t, err)

	// missing comment
	err = service.DeleteComment(nil, owl, created.DocID, roost.New())
	assert.True(t, IsKind(err, KindNotFound))

	// exactly the targeted comment is removed, order is preserved
	err = service.DeleteComment(nil, owl, created.DocID, second.ID)
	require.NoError(t, err)
	var stored Hoot
	tester.Fetch(&stored, created.DocID)
	require.Len(t, stored.Comments, 2)
	assert.Equal(t, first.ID, stored.Comments[0].ID)
	assert.Equal(t, third.ID, stored.Comments[1].ID)
}

func TestCommentPolicyOwner(t *testing.T) {
	tester.Clean()

	service := NewService(store)
	service.CommentPolicy = CommentPolicyOwner
	owl := user("Owl")
	crow := user("Crow")

	created, err := service.Create(nil, owl, CreateRequest{Title: "a", Text: "x", Category: News})
	require.NoError(t, err)
	comment, err := service.AddComment(nil, crow, created.DocID, CommentRequest{Text: "hi"})
	require.NoError(t, err)

	// only the comment author may mutate
	err = service.UpdateComment(nil, owl, created.DocID, comment.ID, CommentRequest{Text: "new"})
	assert.True(t, IsKind(err, KindForbidden))
	err = service.DeleteComment(nil, owl, created.DocID, comment.ID)
	assert.True(t, IsKind(err, KindForbidden))

	// the author may
	err = service.UpdateComment(nil, crow, created.DocID, comment.ID, CommentRequest{Text: "new"})
	assert.NoError(t, err)
	err = service.DeleteComment(nil, crow, created.DocID, comment.ID)
	assert.NoError(t, err)
}

func TestDirectory(t *testing.T) {
	tester.Clean()

	owl := user("Owl")
	crow := user("Crow")
	users := map[roost.ID]Identity{
		owl.ID:  owl,
		crow.ID: crow,
	}

	service := NewService(store)
	service.Directory = func(_ context.Context, id roost.ID) (Identity, bool) {
		identity, ok := users[id]
		return identity, ok
	}

	created, err := service.Create(nil, owl, CreateRequest{Title: "a", Text: "x", Category: News})
	require.NoError(t, err)
	_, err = service.AddComment(nil, crow, created.DocID, CommentRequest{Text: "hi"})
	require.NoError(t, err)

	// authors are resolved on reads
	found, err := service.Get(nil, created.DocID)
	require.NoError(t, err)
	assert.Equal(t, "Owl", found.AuthorName)
	require.Len(t, found.Comments, 1)
	assert.Equal(t, "Crow", found.Comments[0].AuthorName)

	list, err := service.List(nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Owl", list[0].AuthorName)
}

func TestScenario(t *testing.T) {
	tester.Clean()

	service := NewService(store)
	u1 := user("U1")
	u2 := user("U2")

	// U1 creates a hoot
	created, err := service.Create(nil, u1, CreateRequest{Title: "A", Text: "B", Category: News})
	require.NoError(t, err)
	assert.Equal(t, u1.ID, created.Author)
	assert.Equal(t, []Comment{}, created.Comments)

	// U2 comments without restriction
	comment, err := service.AddComment(nil, u2, created.DocID, CommentRequest{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, u2.ID, comment.Author)

	// U2 may not update the hoot
	_, err = service.Update(nil, u2, created.DocID, UpdateRequest{Title: "C"})
	assert.True(t, IsKind(err, KindForbidden))

	// U1 deletes the hoot
	_, err = service.Delete(nil, u1, created.DocID)
	require.NoError(t, err)
	_, err = service.Get(nil, created.DocID)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCategoryValid(t *testing.T) {
	for _, category := range Categories() {
		assert.True(t, category.Valid())
	}
	assert.False(t, Category("").Valid())
	assert.False(t, Category("Gardening").Valid())
}

func TestUpdatedTimestamp(t *testing.T) {
	tester.Clean()

	service := NewService(store)
	owl := user("Owl")

	created, err := service.Create(nil, owl, CreateRequest{Title: "a", Text: "x", Category: News})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = service.AddComment(nil, owl, created.DocID, CommentRequest{Text: "hi"})
	require.NoError(t, err)

	var stored Hoot
	tester.Fetch(&stored, created.DocID)
	assert.True(t, stored.Updated.After(stored.Created))
}
