// Package api implements the REST surface of the hoot service.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/256dpi/serve"
	"github.com/256dpi/xo"
	"github.com/go-chi/chi/v5"

	"github.com/hootbox/hootbox/hoot"
	"github.com/hootbox/hootbox/roost"
	"github.com/hootbox/hootbox/talon"
)

// the maximum accepted request body size
var bodyLimit = serve.MustByteSize("64K")

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Handler returns the http handler serving the hoot API. All routes require
// a verified identity.
func Handler(service *hoot.Service, notary *talon.Notary) http.Handler {
	r := chi.NewRouter()
	r.Use(talon.Protect(notary))
	r.Route("/hoots", func(r chi.Router) {
		r.Post("/", createHoot(service))
		r.Get("/", listHoots(service))
		r.Get("/{hoot}", getHoot(service))
		r.Put("/{hoot}", updateHoot(service))
		r.Delete("/{hoot}", deleteHoot(service))
		r.Post("/{hoot}/comments", addComment(service))
		r.Put("/{hoot}/comments/{comment}", updateComment(service))
		r.Delete("/{hoot}/comments/{comment}", deleteComment(service))
	})

	return r
}

func createHoot(service *hoot.Service) http.HandlerFunc {
	return endpoint(func(w http.ResponseWriter, r *http.Request) error {
		// get caller
		identity, err := caller(r)
		if err != nil {
			return err
		}

		// decode request
		var req hoot.CreateRequest
		err = decode(w, r, &req)
		if err != nil {
			return err
		}

		// create hoot
		created, err := service.Create(r.Context(), identity, req)
		if err != nil {
			return err
		}

		reply(w, http.StatusCreated, created)

		return nil
	})
}

func listHoots(service *hoot.Service) http.HandlerFunc {
	return endpoint(func(w http.ResponseWriter, r *http.Request) error {
		// list hoots
		list, err := service.List(r.Context())
		if err != nil {
			return err
		}

		reply(w, http.StatusOK, list)

		return nil
	})
}

func getHoot(service *hoot.Service) http.HandlerFunc {
	return endpoint(func(w http.ResponseWriter, r *http.Request) error {
		// get id
		id, err := param(r, "hoot")
		if err != nil {
			return err
		}

		// get hoot
		found, err := service.Get(r.Context(), id)
		if err != nil {
			return err
		}

		reply(w, http.StatusOK, found)

		return nil
	})
}

func updateHoot(service *hoot.Service) http.HandlerFunc {
	return endpoint(func(w http.ResponseWriter, r *http.Request) error {
		// get caller
		identity, err := caller(r)
		if err != nil {
			return err
		}

		// get id
		id, err := param(r, "hoot")
		if err != nil {
			return err
		}

		// decode request
		var req hoot.UpdateRequest
		err = decode(w, r, &req)
		if err != nil {
			return err
		}

		// update hoot
		updated, err := service.Update(r.Context(), identity, id, req)
		if err != nil {
			return err
		}

		reply(w, http.StatusOK, updated)

		return nil
	})
}

func deleteHoot(service *hoot.Service) http.HandlerFunc {
	return endpoint(func(w http.ResponseWriter, r *http.Request) error {
		// get caller
		identity, err := caller(r)
		if err != nil {
			return err
		}

		// get id
		id, err := param(r, "hoot")
		if err != nil {
			return err
		}

		// delete hoot
		deleted, err := service.Delete(r.Context(), identity, id)
		if err != nil {
			return err
		}

		reply(w, http.StatusOK, deleted)

		return nil
	})
}

func addComment(service *hoot.Service) http.HandlerFunc {
	return endpoint(func(w http.ResponseWriter, r *http.Request) error {
		// get caller
		identity, err := caller(r)
		if err != nil {
			return err
		}

		// get id
		id, err := param(r, "hoot")
		if err != nil {
			return err
		}

		// decode request
		var req hoot.CommentRequest
		err = decode(w, r, &req)
		if err != nil {
			return err
		}

		// add comment
		comment, err := service.AddComment(r.Context(), identity, id, req)
		if err != nil {
			return err
		}

		reply(w, http.StatusCreated, comment)

		return nil
	})
}

func updateComment(service *hoot.Service) http.HandlerFunc {
	return endpoint(func(w http.ResponseWriter, r *http.Request) error {
		// get caller
		identity, err := caller(r)
		if err != nil {
			return err
		}

		// get ids
		id, err := param(r, "hoot")
		if err != nil {
			return err
		}
		commentID, err := param(r, "comment")
		if err != nil {
			return err
		}

		// decode request
		var req hoot.CommentRequest
		err = decode(w, r, &req)
		if err != nil {
			return err
		}

		// update comment
		err = service.UpdateComment(r.Context(), identity, id, commentID, req)
		if err != nil {
			return err
		}

		reply(w, http.StatusOK, messageResponse{Message: "Ok"})

		return nil
	})
}

func deleteComment(service *hoot.Service) http.HandlerFunc {
	return endpoint(func(w http.ResponseWriter, r *http.Request) error {
		// get caller
		identity, err := caller(r)
		if err != nil {
			return err
		}

		// get ids
		id, err := param(r, "hoot")
		if err != nil {
			return err
		}
		commentID, err := param(r, "comment")
		if err != nil {
			return err
		}

		// delete comment
		err = service.DeleteComment(r.Context(), identity, id, commentID)
		if err != nil {
			return err
		}

		reply(w, http.StatusOK, messageResponse{Message: "Ok"})

		return nil
	})
}

// endpoint adapts an error returning handler and maps errors to responses.
func endpoint(fn func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := xo.Catch(func() error {
			return fn(w, r)
		})
		if err != nil {
			writeError(w, err)
		}
	}
}

// caller returns the identity stored by the talon middleware.
func caller(r *http.Request) (hoot.Identity, error) {
	identity, ok := talon.Use(r.Context())
	if !ok {
		return hoot.Identity{}, hoot.E(hoot.KindUnauthenticated, "missing identity")
	}

	return hoot.Identity{
		ID:   identity.ID,
		Name: identity.Name,
	}, nil
}

// param parses the named url parameter as an object id.
func param(r *http.Request, name string) (roost.ID, error) {
	id, err := roost.FromHex(chi.URLParam(r, name))
	if err != nil {
		return roost.Z(), hoot.E(hoot.KindValidation, "invalid %s id", name)
	}

	return id, nil
}

// decode limits and decodes the request body.
func decode(w http.ResponseWriter, r *http.Request, value interface{}) error {
	// limit body
	serve.LimitBody(w, r, bodyLimit)

	// decode body
	err := json.NewDecoder(r.Body).Decode(value)
	if err != nil {
		return hoot.E(hoot.KindValidation, "invalid body")
	}

	return nil
}

// reply writes a JSON response.
func reply(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeError maps an error to a status code and writes a JSON error
// response. Messages of unsafe errors are not echoed to the client.
func writeError(w http.ResponseWriter, err error) {
	// map kind to status
	status := http.StatusInternalServerError
	switch {
	case hoot.IsKind(err, hoot.KindValidation):
		status = http.StatusBadRequest
	case hoot.IsKind(err, hoot.KindUnauthenticated):
		status = http.StatusUnauthorized
	case hoot.IsKind(err, hoot.KindForbidden):
		status = http.StatusForbidden
	case hoot.IsKind(err, hoot.KindNotFound):
		status = http.StatusNotFound
	}

	// only expose safe messages
	msg := http.StatusText(status)
	if xo.IsSafe(err) {
		msg = xo.AsSafe(err).Msg
	}

	reply(w, status, errorResponse{Error: msg})
}
