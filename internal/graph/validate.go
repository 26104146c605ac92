package graph

import "fmt"

// Options controls validation policy. The structural checks are identical
// everywhere; Strict decides whether unreachable nodes are errors (the
// submission gate) or warnings (editor live feedback, where unreached
// nodes are expected while authoring). CheckImage, when set, is consulted
// for every node image reference so the caller can verify existence and
// ownership against the upload service; it is nil for editor feedback.
type Options struct {
	Strict     bool
	CheckImage func(fileID string) error
}

// Result carries validation output as data. Errors block submission,
// warnings never do; callers decide pass/fail by len(Errors) == 0.
type Result struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Valid reports whether the graph may be submitted.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

// Validate checks every structural invariant of a draft graph: unique
// ids, resolvable start, resolvable button targets, buttons on every
// non-ending node, reachability of all nodes from the start, and at
// least one reachable ending. It is pure and deterministic; cycles are
// permitted.
func Validate(g *Graph, opts Options) Result {
	var res Result

	if len(g.Nodes) == 0 {
		res.Errors = append(res.Errors, "graph has no nodes")
		return res
	}

	// First occurrence wins on duplicate ids; later checks see one node
	// per id.
	nodes := make(map[string]*SceneNode, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if _, dup := nodes[n.ID]; dup {
			res.Errors = append(res.Errors, fmt.Sprintf("duplicate node id %q", n.ID))
			continue
		}
		nodes[n.ID] = n
	}

	start := g.ComicMeta.StartNodeID
	if _, ok := nodes[start]; !ok {
		// Nothing else is meaningful without a start node.
		res.Errors = append(res.Errors, fmt.Sprintf("start node %q does not exist", start))
		return res
	}

	hasEnding := false
	for _, n := range g.Nodes {
		if n.IsEnding {
			hasEnding = true
			break
		}
	}
	if !hasEnding {
		res.Errors = append(res.Errors, "graph has no ending scene")
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if nodes[n.ID] != n {
			continue // duplicate, already reported
		}
		if !n.IsEnding && len(n.Buttons) == 0 {
			res.Errors = append(res.Errors, fmt.Sprintf("scene %q has no choice buttons and is not an ending", n.ID))
		}
		btnIDs := make(map[string]bool, len(n.Buttons))
		targets := make(map[string]bool, len(n.Buttons))
		for _, b := range n.Buttons {
			if btnIDs[b.ID] {
				res.Errors = append(res.Errors, fmt.Sprintf("scene %q has duplicate button id %q", n.ID, b.ID))
			}
			btnIDs[b.ID] = true
			if _, ok := nodes[b.TargetNodeID]; !ok {
				res.Errors = append(res.Errors, fmt.Sprintf("scene %q button %q targets unknown scene %q", n.ID, b.Text, b.TargetNodeID))
				continue
			}
			if b.TargetNodeID == n.ID {
				res.Warnings = append(res.Warnings, fmt.Sprintf("scene %q button %q targets its own scene", n.ID, b.Text))
			}
			if targets[b.TargetNodeID] {
				res.Warnings = append(res.Warnings, fmt.Sprintf("scene %q has multiple buttons targeting scene %q", n.ID, b.TargetNodeID))
			}
			targets[b.TargetNodeID] = true
		}
		if n.ImageFileID == "" && n.ImageURL == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("scene %q has no image", n.ID))
		} else if opts.CheckImage != nil && n.ImageFileID != "" {
			if err := opts.CheckImage(n.ImageFileID); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("scene %q image: %v", n.ID, err))
			}
		}
	}

	// One traversal answers both reachability and ending reachability.
	visited := reachable(start, nodes)
	endingReachable := false
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if nodes[n.ID] != n {
			continue
		}
		if !visited[n.ID] {
			msg := fmt.Sprintf("scene %q is unreachable from the start scene", n.ID)
			if opts.Strict {
				res.Errors = append(res.Errors, msg)
			} else {
				res.Warnings = append(res.Warnings, msg)
			}
			continue
		}
		if n.IsEnding {
			endingReachable = true
		}
	}
	if hasEnding && !endingReachable {
		res.Errors = append(res.Errors, "no ending scene is reachable from the start scene")
	}

	return res
}

// reachable runs one breadth-first traversal from start following choice
// buttons and returns the visited set. Edges to unknown nodes are skipped;
// they are reported separately.
func reachable(start string, nodes map[string]*SceneNode) map[string]bool {
	visited := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := nodes[id]
		if n == nil {
			continue
		}
		for _, b := range n.Buttons {
			if _, ok := nodes[b.TargetNodeID]; !ok {
				continue
			}
			if !visited[b.TargetNodeID] {
				visited[b.TargetNodeID] = true
				queue = append(queue, b.TargetNodeID)
			}
		}
	}
	return visited
}
