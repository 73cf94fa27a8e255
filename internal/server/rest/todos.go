package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
)

var errTodoNotFound = ErrNotFound.WithDetail("Todo not found or not owned by user")

// handleCreateTodo handles POST /todos/.
func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	owner, _ := AccountIDFromContext(r.Context())

	var req taskCreateRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	task, err := s.tasks.Create(r.Context(), owner, models.TaskCreate{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

// handleListTodos handles GET /todos/?skip=&limit=.
func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	owner, _ := AccountIDFromContext(r.Context())

	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", services.DefaultListLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tasks, err := s.tasks.List(r.Context(), owner, skip, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponses(tasks))
}

// handleUpdateTodo handles PUT /todos/{id}.
func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	owner, _ := AccountIDFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		s.writeError(w, r, errTodoNotFound)
		return
	}

	var req taskUpdateRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	task, err := s.tasks.Update(r.Context(), owner, id, models.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		s.writeError(w, r, todoNotFound(err))
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

// handleDeleteTodo handles DELETE /todos/{id}.
func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	owner, _ := AccountIDFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		s.writeError(w, r, errTodoNotFound)
		return
	}

	task, err := s.tasks.Delete(r.Context(), owner, id)
	if err != nil {
		s.writeError(w, r, todoNotFound(err))
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

// pathID parses {id}. A malformed id is reported like a missing task.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrValidation.WithDetail(key + ": value is not a valid integer")
	}
	return v, nil
}

func todoNotFound(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return errTodoNotFound
	}
	return err
}
