package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/todoapp/tasktracker/internal/api/middleware"
	"github.com/todoapp/tasktracker/internal/core/domain"
	"github.com/todoapp/tasktracker/internal/core/ports"
	"github.com/todoapp/tasktracker/internal/pkg/metrics"
)

const todoListPath = "/todos"

// TodoHandler serves the caller's todos. It only ever reaches todos through
// the owner-scoped repository placed on the context by middleware.Guard.
//
// The JSON methods answer a todo owned by someone else with 404. The Page*
// methods serve browser forms and redirect back to the list after every
// write, treating a missing or foreign todo as a no-op.
type TodoHandler struct {
	log zerolog.Logger
}

func NewTodoHandler(log zerolog.Logger) *TodoHandler {
	return &TodoHandler{log: log}
}

// List handles GET /todos and GET /api/v1/todos.
//
// @Summary      List the caller's todos
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   todoResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/v1/todos [get]
func (h *TodoHandler) List(c echo.Context) error {
	todos, err := scopedTodos(c)
	if err != nil {
		return err
	}

	list, err := todos.List(c.Request().Context())
	if err != nil {
		return err
	}

	resp := make([]todoResponse, 0, len(list))
	for _, t := range list {
		resp = append(resp, toTodoResponse(t))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get handles GET /todos/:id and GET /api/v1/todos/:id.
//
// @Summary      Get one of the caller's todos
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Todo ID"
// @Success      200  {object}  todoResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/v1/todos/{id} [get]
func (h *TodoHandler) Get(c echo.Context) error {
	todos, id, err := scopedTodo(c)
	if err != nil {
		return err
	}

	todo, err := todos.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTodoResponse(todo))
}

// Create handles POST /api/v1/todos.
//
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      todoRequest  true  "Todo"
// @Success      201   {object}  todoResponse
// @Failure      400   {object}  errorResponse
// @Router       /api/v1/todos [post]
func (h *TodoHandler) Create(c echo.Context) error {
	todo, err := h.create(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTodoResponse(todo))
}

// Update handles PUT /api/v1/todos/:id.
//
// @Summary      Update a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int          true  "Todo ID"
// @Param        body  body      todoRequest  true  "Todo"
// @Success      200   {object}  todoResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/v1/todos/{id} [put]
func (h *TodoHandler) Update(c echo.Context) error {
	todo, err := h.update(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTodoResponse(todo))
}

// Toggle handles PATCH /api/v1/todos/:id/complete.
//
// @Summary      Toggle completion of a todo
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Todo ID"
// @Success      200  {object}  todoResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/v1/todos/{id}/complete [patch]
func (h *TodoHandler) Toggle(c echo.Context) error {
	todo, err := h.toggle(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTodoResponse(todo))
}

// Delete handles DELETE /api/v1/todos/:id.
//
// @Summary      Delete a todo
// @Tags         todos
// @Security     BearerAuth
// @Param        id   path  int  true  "Todo ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/v1/todos/{id} [delete]
func (h *TodoHandler) Delete(c echo.Context) error {
	if err := h.delete(c); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// PageCreate handles POST /todos/add-todo.
func (h *TodoHandler) PageCreate(c echo.Context) error {
	if _, err := h.create(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, todoListPath)
}

// PageEdit handles POST /todos/edit-todo/:id.
func (h *TodoHandler) PageEdit(c echo.Context) error {
	_, err := h.update(c)
	return h.backToList(c, err)
}

// PageToggle handles GET /todos/complete/:id.
func (h *TodoHandler) PageToggle(c echo.Context) error {
	_, err := h.toggle(c)
	return h.backToList(c, err)
}

// PageDelete handles GET /todos/delete/:id.
func (h *TodoHandler) PageDelete(c echo.Context) error {
	return h.backToList(c, h.delete(c))
}

func (h *TodoHandler) backToList(c echo.Context, err error) error {
	if err != nil && !errors.Is(err, domain.ErrTodoNotFound) {
		return err
	}
	if err != nil {
		log := requestLogger(c, h.log)
		log.Info().Str("todo_id", c.Param("id")).Msg("ignored write to unknown todo")
	}
	return c.Redirect(http.StatusFound, todoListPath)
}

func (h *TodoHandler) create(c echo.Context) (*domain.Todo, error) {
	todos, err := scopedTodos(c)
	if err != nil {
		return nil, err
	}

	var req todoRequest
	if err := bindTodo(c, &req); err != nil {
		return nil, err
	}

	todo, err := todos.Create(c.Request().Context(), &domain.Todo{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Complete:    req.Complete != nil && *req.Complete,
	})
	if err != nil {
		return nil, err
	}
	metrics.TodoMutationsTotal.WithLabelValues("create").Inc()
	return todo, nil
}

func (h *TodoHandler) update(c echo.Context) (*domain.Todo, error) {
	todos, id, err := scopedTodo(c)
	if err != nil {
		return nil, err
	}

	var req todoRequest
	if err := bindTodo(c, &req); err != nil {
		return nil, err
	}

	todo, err := todos.Update(c.Request().Context(), id, func(t *domain.Todo) error {
		t.Title = req.Title
		t.Description = req.Description
		t.Priority = req.Priority
		if req.Complete != nil {
			t.Complete = *req.Complete
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.TodoMutationsTotal.WithLabelValues("update").Inc()
	return todo, nil
}

func (h *TodoHandler) toggle(c echo.Context) (*domain.Todo, error) {
	todos, id, err := scopedTodo(c)
	if err != nil {
		return nil, err
	}

	todo, err := todos.Update(c.Request().Context(), id, func(t *domain.Todo) error {
		t.Complete = !t.Complete
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.TodoMutationsTotal.WithLabelValues("toggle").Inc()
	return todo, nil
}

func (h *TodoHandler) delete(c echo.Context) error {
	todos, id, err := scopedTodo(c)
	if err != nil {
		return err
	}

	if err := todos.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	metrics.TodoMutationsTotal.WithLabelValues("delete").Inc()
	return nil
}

func bindTodo(c echo.Context, req *todoRequest) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func scopedTodos(c echo.Context) (ports.OwnedTodoRepository, error) {
	todos, ok := middleware.TodosFrom(c)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return todos, nil
}

func scopedTodo(c echo.Context) (ports.OwnedTodoRepository, int64, error) {
	todos, err := scopedTodos(c)
	if err != nil {
		return nil, 0, err
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return nil, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid todo id")
	}
	return todos, id, nil
}
