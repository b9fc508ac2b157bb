package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ramify-app/ramify/store"
)

// CreateBoardRequest seeds a new board. Theme becomes the root node content;
// when empty the title stands in.
type CreateBoardRequest struct {
	Title    string              `json:"title"`
	Theme    string              `json:"theme"`
	Defaults store.BoardDefaults `json:"defaults"`
}

// UpdateBoardRequest is a partial board update. Absent fields are untouched.
type UpdateBoardRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Defaults    *store.BoardDefaults `json:"defaults"`
}

// ListBoardsResponse lists the known board descriptors.
type ListBoardsResponse struct {
	Boards []*store.Board `json:"boards"`
}

// BoardDetailResponse is one fully loaded board: the descriptor document
// plus every node and summary.
type BoardDetailResponse struct {
	Board     *store.Board     `json:"board"`
	Nodes     []*store.Node    `json:"nodes"`
	Summaries []*store.Summary `json:"summaries"`
}

func boardDetail(graph *store.BoardGraph) *BoardDetailResponse {
	return &BoardDetailResponse{
		Board:     graph.Board(),
		Nodes:     graph.ListNodes(),
		Summaries: graph.ListSummaries(nil),
	}
}

// CreateBoard creates a board with its root node and persists it.
// POST /api/v1/boards
func (s *APIV1Service) CreateBoard(c echo.Context) error {
	request := &CreateBoardRequest{}
	if err := c.Bind(request); err != nil {
		return respondInvalid(c, "malformed create board request")
	}
	if request.Title == "" {
		return respondInvalid(c, "board title is required")
	}

	graph, err := s.Store.CreateBoard(c.Request().Context(), &store.CreateBoard{
		Title:    request.Title,
		Theme:    request.Theme,
		Defaults: request.Defaults,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, boardDetail(graph))
}

// ListBoards lists all known boards.
// GET /api/v1/boards
func (s *APIV1Service) ListBoards(c echo.Context) error {
	boards, err := s.Store.ListBoards(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	if boards == nil {
		boards = []*store.Board{}
	}
	return c.JSON(http.StatusOK, &ListBoardsResponse{Boards: boards})
}

// GetBoard returns a board with all of its nodes and summaries, loading it
// from disk on first access.
// GET /api/v1/boards/:board
func (s *APIV1Service) GetBoard(c echo.Context) error {
	graph, err := s.Store.GetBoard(c.Request().Context(), c.Param("board"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, boardDetail(graph))
}

// UpdateBoard applies a partial update to the board document.
// PATCH /api/v1/boards/:board
func (s *APIV1Service) UpdateBoard(c echo.Context) error {
	request := &UpdateBoardRequest{}
	if err := c.Bind(request); err != nil {
		return respondInvalid(c, "malformed update board request")
	}
	if request.Title != nil && *request.Title == "" {
		return respondInvalid(c, "board title cannot be empty")
	}

	ctx := c.Request().Context()
	boardID := c.Param("board")
	graph, err := s.Store.GetBoard(ctx, boardID)
	if err != nil {
		return respondError(c, err)
	}
	board := graph.UpdateBoard(&store.UpdateBoard{
		ID:          boardID,
		Title:       request.Title,
		Description: request.Description,
		Defaults:    request.Defaults,
	})
	if err := s.Store.SaveBoard(ctx, boardID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, board)
}

// DeleteBoard removes a board with all of its documents, summaries included.
// DELETE /api/v1/boards/:board
func (s *APIV1Service) DeleteBoard(c echo.Context) error {
	if err := s.Store.DeleteBoard(c.Request().Context(), c.Param("board")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SaveBoard persists the current in-memory snapshot of an open board.
// POST /api/v1/boards/:board/save
func (s *APIV1Service) SaveBoard(c echo.Context) error {
	if err := s.Store.SaveBoard(c.Request().Context(), c.Param("board")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
