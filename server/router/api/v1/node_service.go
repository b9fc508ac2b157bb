package v1

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ramify-app/ramify/plugin/markdown"
	"github.com/ramify-app/ramify/store"
)

// CreateNodeRequest adds a node to a board. ParentIDs order is significant:
// the first entry becomes the main parent.
type CreateNodeRequest struct {
	Type      store.NodeType      `json:"type"`
	Role      store.NodeRole      `json:"role"`
	Title     string              `json:"title"`
	Content   string              `json:"content"`
	ParentIDs []string            `json:"parentIds"`
	Metadata  *store.NodeMetadata `json:"metadata"`
}

// UpdateNodeRequest is a partial node update. Absent fields are untouched.
// The answer link and loading flag are engine-managed and not settable.
type UpdateNodeRequest struct {
	Title    *string             `json:"title"`
	Content  *string             `json:"content"`
	Metadata *store.NodeMetadata `json:"metadata"`
}

// NodeLinkRequest names the parent for the reparent, main-parent and unlink
// operations.
type NodeLinkRequest struct {
	ParentID string `json:"parentId"`
}

// ListNodesResponse lists nodes, optionally narrowed by a filter expression.
type ListNodesResponse struct {
	Nodes []*store.Node `json:"nodes"`
}

// DeleteNodeResponse reports how many nodes one deletion removed, the target
// plus its descendant closure.
type DeleteNodeResponse struct {
	DeletedCount int `json:"deletedCount"`
}

// QuestionStateResponse reports the lifecycle state of a question node.
type QuestionStateResponse struct {
	State store.QuestionState `json:"state"`
}

// ListNodes lists a board's nodes, optionally narrowed by a CEL filter
// expression such as pinned && importance >= 4.
// GET /api/v1/boards/:board/nodes
func (s *APIV1Service) ListNodes(c echo.Context) error {
	graph, err := s.Store.GetBoard(c.Request().Context(), c.Param("board"))
	if err != nil {
		return respondError(c, err)
	}

	var filter *store.NodeFilter
	if expression := c.QueryParam("filter"); expression != "" {
		filter, err = store.CompileNodeFilter(expression)
		if err != nil {
			return respondInvalid(c, fmt.Sprintf("invalid filter expression: %v", err))
		}
	}
	nodes, err := graph.FilterNodes(filter)
	if err != nil {
		return respondInvalid(c, fmt.Sprintf("filter evaluation failed: %v", err))
	}
	return c.JSON(http.StatusOK, &ListNodesResponse{Nodes: nodes})
}

// CreateNode adds a node to the board. A note created without a title gets
// one derived from its markdown content.
// POST /api/v1/boards/:board/nodes
func (s *APIV1Service) CreateNode(c echo.Context) error {
	request := &CreateNodeRequest{}
	if err := c.Bind(request); err != nil {
		return respondInvalid(c, "malformed create node request")
	}
	title := request.Title
	if title == "" && request.Type == store.NodeTypeNote {
		title = markdown.ExtractTitle(request.Content)
	}

	ctx := c.Request().Context()
	boardID := c.Param("board")
	graph, err := s.Store.GetBoard(ctx, boardID)
	if err != nil {
		return respondError(c, err)
	}
	node, err := graph.CreateNode(&store.CreateNode{
		Type:      request.Type,
		Role:      request.Role,
		Title:     title,
		Content:   request.Content,
		ParentIDs: request.ParentIDs,
		Metadata:  request.Metadata,
	})
	if err != nil {
		return respondError(c, err)
	}
	if err := s.Store.SaveBoard(ctx, boardID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, node)
}

// UpdateNode applies a partial update to a node. Content edits on a frozen
// question are rejected; the answers below it depend on the current
// phrasing, so the question must be duplicated instead.
// PATCH /api/v1/boards/:board/nodes/:node
func (s *APIV1Service) UpdateNode(c echo.Context) error {
	request := &UpdateNodeRequest{}
	if err := c.Bind(request); err != nil {
		return respondInvalid(c, "malformed update node request")
	}

	ctx := c.Request().Context()
	boardID := c.Param("board")
	nodeID := c.Param("node")
	graph, err := s.Store.GetBoard(ctx, boardID)
	if err != nil {
		return respondError(c, err)
	}
	if request.Content != nil {
		state, err := graph.QuestionEditState(nodeID)
		if err != nil {
			return respondError(c, err)
		}
		if state == store.QuestionStateDuplicateOnly {
			return respondError(c, errors.Wrapf(store.ErrInvalidOperation,
				"question %s is frozen, duplicate it instead", nodeID))
		}
	}
	node, err := graph.UpdateNode(&store.UpdateNode{
		ID:       nodeID,
		Title:    request.Title,
		Content:  request.Content,
		Metadata: request.Metadata,
	})
	if err != nil {
		return respondError(c, err)
	}
	if err := s.Store.SaveBoard(ctx, boardID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, node)
}

// DeleteNode removes a node and its entire descendant closure.
// DELETE /api/v1/boards/:board/nodes/:node
func (s *APIV1Service) DeleteNode(c echo.Context) error {
	ctx := c.Request().Context()
	boardID := c.Param("board")
	graph, err := s.Store.GetBoard(ctx, boardID)
	if err != nil {
		return respondError(c, err)
	}
	deleted, err := graph.DeleteNode(c.Param("node"))
	if err != nil {
		return respondError(c, err)
	}
	if err := s.Store.SaveBoard(ctx, boardID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, &DeleteNodeResponse{DeletedCount: deleted})
}

// ReparentNode links an additional parent to a node, leaving the main
// parent unchanged.
// POST /api/v1/boards/:board/nodes/:node/reparent
func (s *APIV1Service) ReparentNode(c echo.Context) error {
	return s.linkOperation(c, "malformed reparent request", func(graph *store.BoardGraph, nodeID, parentID string) error {
		return graph.AddParent(nodeID, parentID)
	})
}

// SetMainParent promotes an already-linked parent to main parent.
// POST /api/v1/boards/:board/nodes/:node/main-parent
func (s *APIV1Service) SetMainParent(c echo.Context) error {
	return s.linkOperation(c, "malformed main-parent request", func(graph *store.BoardGraph, nodeID, parentID string) error {
		return graph.SetMainParent(nodeID, parentID)
	})
}

// UnlinkNode removes one parent-child link.
// POST /api/v1/boards/:board/nodes/:node/unlink
func (s *APIV1Service) UnlinkNode(c echo.Context) error {
	return s.linkOperation(c, "malformed unlink request", func(graph *store.BoardGraph, nodeID, parentID string) error {
		return graph.RemoveParentChild(parentID, nodeID)
	})
}

// linkOperation runs one parent-link mutation and responds with the updated
// child node.
func (s *APIV1Service) linkOperation(c echo.Context, bindMsg string, op func(graph *store.BoardGraph, nodeID, parentID string) error) error {
	request := &NodeLinkRequest{}
	if err := c.Bind(request); err != nil {
		return respondInvalid(c, bindMsg)
	}
	if request.ParentID == "" {
		return respondInvalid(c, "parentId is required")
	}

	ctx := c.Request().Context()
	boardID := c.Param("board")
	nodeID := c.Param("node")
	graph, err := s.Store.GetBoard(ctx, boardID)
	if err != nil {
		return respondError(c, err)
	}
	if err := op(graph, nodeID, request.ParentID); err != nil {
		return respondError(c, err)
	}
	if err := s.Store.SaveBoard(ctx, boardID); err != nil {
		return respondError(c, err)
	}
	node, ok := graph.GetNode(nodeID)
	if !ok {
		return respondError(c, errors.Wrapf(store.ErrNodeNotFound, "node %s", nodeID))
	}
	return c.JSON(http.StatusOK, node)
}

// GetSubtree returns a node and all of its descendants, depth-first.
// GET /api/v1/boards/:board/nodes/:node/subtree
func (s *APIV1Service) GetSubtree(c echo.Context) error {
	graph, err := s.Store.GetBoard(c.Request().Context(), c.Param("board"))
	if err != nil {
		return respondError(c, err)
	}
	nodes, err := graph.Subtree(c.Param("node"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, &ListNodesResponse{Nodes: nodes})
}

// GetQuestionState derives the lifecycle state of a question node from the
// current graph shape.
// GET /api/v1/boards/:board/nodes/:node/state
func (s *APIV1Service) GetQuestionState(c echo.Context) error {
	graph, err := s.Store.GetBoard(c.Request().Context(), c.Param("board"))
	if err != nil {
		return respondError(c, err)
	}
	state, err := graph.QuestionEditState(c.Param("node"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, &QuestionStateResponse{State: state})
}

// DuplicateQuestion creates an editable sibling copy of a question: same
// parents and content, fresh identity, no children.
// POST /api/v1/boards/:board/nodes/:node/duplicate
func (s *APIV1Service) DuplicateQuestion(c echo.Context) error {
	ctx := c.Request().Context()
	boardID := c.Param("board")
	graph, err := s.Store.GetBoard(ctx, boardID)
	if err != nil {
		return respondError(c, err)
	}
	node, err := graph.DuplicateQuestion(c.Param("node"))
	if err != nil {
		return respondError(c, err)
	}
	if err := s.Store.SaveBoard(ctx, boardID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, node)
}
