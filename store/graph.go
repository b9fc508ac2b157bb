package store

import (
	"slices"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

var (
	// ErrNodeNotFound is returned when an operation names an unknown node.
	ErrNodeNotFound = errors.New("node not found")
	// ErrInvalidOperation is returned when an operation would break a graph
	// invariant: orphaning a node, deleting the root, cycling the main tree.
	ErrInvalidOperation = errors.New("invalid operation")
)

// BoardGraph is one open board: the board document plus its full node graph
// and summary history, held in memory. All reads return deep copies and all
// mutations are applied under the graph lock, so a graph can be shared by
// concurrent request handlers. Mutations either apply completely or leave
// the graph untouched.
type BoardGraph struct {
	mu sync.RWMutex

	board     *Board
	nodes     map[string]*Node
	order     []string
	summaries []*Summary
}

// NewBoardGraph wraps already-loaded documents. The node slice order is kept
// as the listing order.
func NewBoardGraph(board *Board, nodes []*Node, summaries []*Summary) *BoardGraph {
	g := &BoardGraph{
		board:     board,
		nodes:     make(map[string]*Node, len(nodes)),
		order:     make([]string, 0, len(nodes)),
		summaries: summaries,
	}
	for _, n := range nodes {
		if _, ok := g.nodes[n.ID]; ok {
			continue
		}
		g.nodes[n.ID] = n
		g.order = append(g.order, n.ID)
	}
	return g
}

// newBoardGraphWithRoot seeds a fresh board with its root node.
func newBoardGraphWithRoot(create *CreateBoard) *BoardGraph {
	now := time.Now().Unix()
	root := &Node{
		ID:        shortuuid.New(),
		Type:      NodeTypeRoot,
		Role:      NodeRoleSystem,
		Title:     create.Title,
		Content:   create.Theme,
		CreatedTs: now,
		UpdatedTs: now,
	}
	if root.Content == "" {
		root.Content = create.Title
	}
	board := &Board{
		ID:          shortuuid.New(),
		RootNodeID:  root.ID,
		Title:       create.Title,
		Description: create.Theme,
		Defaults:    create.Defaults,
		CreatedTs:   now,
		UpdatedTs:   now,
	}
	return NewBoardGraph(board, []*Node{root}, nil)
}

// Board returns a copy of the board document.
func (g *BoardGraph) Board() *Board {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.board.Clone()
}

// UpdateBoard applies a partial update to the board document.
func (g *BoardGraph) UpdateBoard(update *UpdateBoard) *Board {
	g.mu.Lock()
	defer g.mu.Unlock()
	if update.Title != nil {
		g.board.Title = *update.Title
	}
	if update.Description != nil {
		g.board.Description = *update.Description
	}
	if update.Defaults != nil {
		g.board.Defaults = *update.Defaults
	}
	g.board.UpdatedTs = time.Now().Unix()
	return g.board.Clone()
}

// Root returns a copy of the root node.
func (g *BoardGraph) Root() *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[g.board.RootNodeID].Clone()
}

// GetNode returns a copy of the node with the given id.
func (g *BoardGraph) GetNode(id string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// ListNodes returns copies of all nodes in insertion order.
func (g *BoardGraph) ListNodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id].Clone())
	}
	return out
}

// NodeCount returns the number of nodes in the graph.
func (g *BoardGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// CreateNode validates the parameters and links a new node into the graph.
// Every referenced parent must already exist; on any validation failure
// nothing is applied. The given parent order is preserved, so ParentIDs[0]
// becomes the new node's main parent.
func (g *BoardGraph) CreateNode(create *CreateNode) (*Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	role, err := resolveRole(create.Type, create.Role)
	if err != nil {
		return nil, err
	}
	if len(create.ParentIDs) == 0 {
		return nil, errors.Wrap(ErrInvalidOperation, "non-root nodes need at least one parent")
	}
	seen := make(map[string]bool, len(create.ParentIDs))
	for _, pid := range create.ParentIDs {
		if seen[pid] {
			return nil, errors.Wrapf(ErrInvalidOperation, "duplicate parent %s", pid)
		}
		seen[pid] = true
		if _, ok := g.nodes[pid]; !ok {
			return nil, errors.Wrapf(ErrNodeNotFound, "parent %s", pid)
		}
	}

	now := time.Now().Unix()
	node := &Node{
		ID:        shortuuid.New(),
		Type:      create.Type,
		Role:      role,
		Title:     create.Title,
		Content:   create.Content,
		ParentIDs: append([]string(nil), create.ParentIDs...),
		Metadata:  create.Metadata.Clone(),
		QAPairID:  create.QAPairID,
		IsLoading: create.IsLoading,
		CreatedTs: now,
		UpdatedTs: now,
	}
	for _, pid := range create.ParentIDs {
		parent := g.nodes[pid]
		parent.ChildrenIDs = append(parent.ChildrenIDs, node.ID)
		parent.UpdatedTs = now
	}
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	g.board.UpdatedTs = now
	return node.Clone(), nil
}

func resolveRole(nodeType NodeType, role NodeRole) (NodeRole, error) {
	switch nodeType {
	case NodeTypeMessage:
		switch role {
		case NodeRoleUser, NodeRoleAssistant:
			return role, nil
		case "":
			return NodeRoleUser, nil
		default:
			return "", errors.Wrapf(ErrInvalidOperation, "role %s not valid for message nodes", role)
		}
	case NodeTypeNote, NodeTypeTopic:
		if role != "" && role != NodeRoleSystem {
			return "", errors.Wrapf(ErrInvalidOperation, "role %s not valid for %s nodes", role, nodeType)
		}
		return NodeRoleSystem, nil
	case NodeTypeRoot:
		return "", errors.Wrap(ErrInvalidOperation, "a board has exactly one root")
	default:
		return "", errors.Wrapf(ErrInvalidOperation, "unknown node type %s", nodeType)
	}
}

// UpdateNode applies a partial update to a node.
func (g *BoardGraph) UpdateNode(update *UpdateNode) (*Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, ok := g.nodes[update.ID]
	if !ok {
		return nil, errors.Wrapf(ErrNodeNotFound, "node %s", update.ID)
	}
	if update.Title != nil {
		node.Title = *update.Title
	}
	if update.Content != nil {
		node.Content = *update.Content
	}
	if update.Metadata != nil {
		node.Metadata = update.Metadata.Clone()
	}
	if update.QAPairID != nil {
		node.QAPairID = *update.QAPairID
	}
	if update.IsLoading != nil {
		node.IsLoading = *update.IsLoading
	}
	now := time.Now().Unix()
	node.UpdatedTs = now
	g.board.UpdatedTs = now
	return node.Clone(), nil
}

// DeleteNode removes the node and its entire descendant closure, then scrubs
// every remaining reference to the removed set. The root is not deletable.
// Returns the number of removed nodes.
func (g *BoardGraph) DeleteNode(id string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return 0, errors.Wrapf(ErrNodeNotFound, "node %s", id)
	}
	if id == g.board.RootNodeID {
		return 0, errors.Wrap(ErrInvalidOperation, "the root node cannot be deleted")
	}

	doomed := g.closureLocked(id)
	doomedSet := make(map[string]bool, len(doomed))
	for _, did := range doomed {
		doomedSet[did] = true
	}
	for _, did := range doomed {
		delete(g.nodes, did)
	}
	g.order = slices.DeleteFunc(g.order, func(oid string) bool { return doomedSet[oid] })

	now := time.Now().Unix()
	for _, survivor := range g.nodes {
		before := len(survivor.ParentIDs) + len(survivor.ChildrenIDs)
		survivor.ParentIDs = slices.DeleteFunc(survivor.ParentIDs, func(pid string) bool { return doomedSet[pid] })
		survivor.ChildrenIDs = slices.DeleteFunc(survivor.ChildrenIDs, func(cid string) bool { return doomedSet[cid] })
		changed := before != len(survivor.ParentIDs)+len(survivor.ChildrenIDs)
		if survivor.QAPairID != "" && doomedSet[survivor.QAPairID] {
			survivor.QAPairID = ""
			changed = true
		}
		if changed {
			survivor.UpdatedTs = now
		}
	}
	g.board.UpdatedTs = now
	return len(doomed), nil
}

// AddParent links an additional parent to a node. The new parent is appended
// after the existing ones, so the main parent is unchanged. Linking an
// already-linked pair is a no-op. Sub-parent links are allowed to close
// cycles in the overall graph; only the main-parent tree stays acyclic.
func (g *BoardGraph) AddParent(childID, parentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	child, ok := g.nodes[childID]
	if !ok {
		return errors.Wrapf(ErrNodeNotFound, "node %s", childID)
	}
	parent, ok := g.nodes[parentID]
	if !ok {
		return errors.Wrapf(ErrNodeNotFound, "parent %s", parentID)
	}
	if childID == parentID {
		return errors.Wrap(ErrInvalidOperation, "a node cannot parent itself")
	}
	if childID == g.board.RootNodeID {
		return errors.Wrap(ErrInvalidOperation, "the root node has no parents")
	}
	if slices.Contains(child.ParentIDs, parentID) {
		return nil
	}

	now := time.Now().Unix()
	child.ParentIDs = append(child.ParentIDs, parentID)
	parent.ChildrenIDs = append(parent.ChildrenIDs, childID)
	child.UpdatedTs = now
	parent.UpdatedTs = now
	g.board.UpdatedTs = now
	return nil
}

// SetMainParent promotes an already-linked parent to the front of the
// child's parent list, making it the main parent. The promotion is rejected
// when it would close a cycle along main-parent edges.
func (g *BoardGraph) SetMainParent(childID, parentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	child, ok := g.nodes[childID]
	if !ok {
		return errors.Wrapf(ErrNodeNotFound, "node %s", childID)
	}
	if _, ok := g.nodes[parentID]; !ok {
		return errors.Wrapf(ErrNodeNotFound, "parent %s", parentID)
	}
	idx := slices.Index(child.ParentIDs, parentID)
	if idx < 0 {
		return errors.Wrapf(ErrInvalidOperation, "%s is not a parent of %s", parentID, childID)
	}
	if idx == 0 {
		return nil
	}
	if g.onMainChainLocked(parentID, childID) {
		return errors.Wrapf(ErrInvalidOperation, "promoting %s would make the main lineage of %s cyclic", parentID, childID)
	}

	child.ParentIDs = slices.Delete(child.ParentIDs, idx, idx+1)
	child.ParentIDs = slices.Insert(child.ParentIDs, 0, parentID)
	now := time.Now().Unix()
	child.UpdatedTs = now
	g.board.UpdatedTs = now
	return nil
}

// RemoveParentChild detaches one parent-child link. Removing the last parent
// is forbidden; delete the node instead. When the main parent is removed the
// next remaining parent is promoted, unless that promotion would close a
// main-edge cycle.
func (g *BoardGraph) RemoveParentChild(parentID, childID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	child, ok := g.nodes[childID]
	if !ok {
		return errors.Wrapf(ErrNodeNotFound, "node %s", childID)
	}
	parent, ok := g.nodes[parentID]
	if !ok {
		return errors.Wrapf(ErrNodeNotFound, "parent %s", parentID)
	}
	idx := slices.Index(child.ParentIDs, parentID)
	if idx < 0 {
		return errors.Wrapf(ErrInvalidOperation, "%s is not a parent of %s", parentID, childID)
	}
	if len(child.ParentIDs) == 1 {
		return errors.Wrapf(ErrInvalidOperation, "removing the last parent would orphan %s", childID)
	}
	if idx == 0 {
		next := child.ParentIDs[1]
		if g.onMainChainLocked(next, childID) {
			return errors.Wrapf(ErrInvalidOperation, "removing the main parent would make the main lineage of %s cyclic", childID)
		}
	}

	child.ParentIDs = slices.Delete(child.ParentIDs, idx, idx+1)
	parent.ChildrenIDs = slices.DeleteFunc(parent.ChildrenIDs, func(cid string) bool { return cid == childID })
	now := time.Now().Unix()
	child.UpdatedTs = now
	parent.UpdatedTs = now
	g.board.UpdatedTs = now
	return nil
}

// Subtree returns copies of the node and all its descendants, depth-first
// following children order.
func (g *BoardGraph) Subtree(id string) ([]*Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[id]; !ok {
		return nil, errors.Wrapf(ErrNodeNotFound, "node %s", id)
	}
	visited := map[string]bool{id: true}
	out := []*Node{}
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := g.nodes[cur]
		out = append(out, node.Clone())
		for i := len(node.ChildrenIDs) - 1; i >= 0; i-- {
			cid := node.ChildrenIDs[i]
			if visited[cid] {
				continue
			}
			visited[cid] = true
			stack = append(stack, cid)
		}
	}
	return out, nil
}

// Snapshot returns a deep copy of every document of the board, detached from
// the live graph, for persisting.
func (g *BoardGraph) Snapshot() *BoardDocuments {
	g.mu.RLock()
	defer g.mu.RUnlock()

	docs := &BoardDocuments{
		Board:     g.board.Clone(),
		Nodes:     make([]*Node, 0, len(g.order)),
		Summaries: make([]*Summary, 0, len(g.summaries)),
	}
	for _, id := range g.order {
		docs.Nodes = append(docs.Nodes, g.nodes[id].Clone())
	}
	for _, s := range g.summaries {
		docs.Summaries = append(docs.Summaries, s.Clone())
	}
	return docs
}

// closureLocked collects id and every descendant reachable over children
// edges, breadth-first. Callers hold the lock.
func (g *BoardGraph) closureLocked(id string) []string {
	visited := map[string]bool{id: true}
	out := []string{id}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, cid := range g.nodes[cur].ChildrenIDs {
			if visited[cid] {
				continue
			}
			visited[cid] = true
			out = append(out, cid)
			queue = append(queue, cid)
		}
	}
	return out
}

// onMainChainLocked walks main-parent edges upward from startID and reports
// whether targetID lies on that lineage. The visited set guards against
// pre-existing corruption; a healthy main tree terminates at the root.
func (g *BoardGraph) onMainChainLocked(startID, targetID string) bool {
	visited := map[string]bool{}
	cur := startID
	for cur != "" && !visited[cur] {
		if cur == targetID {
			return true
		}
		visited[cur] = true
		node, ok := g.nodes[cur]
		if !ok {
			return false
		}
		cur = node.MainParentID()
	}
	return false
}
