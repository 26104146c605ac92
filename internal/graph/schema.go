// Package graph holds the draft representation of an interactive comic:
// scene nodes connected by positioned choice buttons, plus the comic
// metadata carried alongside. The same payload shape is stored verbatim
// on revisions and exchanged with the editor.
package graph

// ComicMeta is the top-level metadata carried with every draft.
type ComicMeta struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	CoverFileID      string   `json:"coverFileId"`
	CoverImage       string   `json:"coverImage"`
	Genres           []string `json:"genres"`
	Tags             []string `json:"tags"`
	StartNodeID      string   `json:"startNodeId"`
	EstimatedMinutes int      `json:"estimatedMinutes"`
}

// SceneNode is one illustrated story beat. A node with IsEnding set may
// have no buttons; every other node needs at least one outgoing choice.
type SceneNode struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	ImageFileID string         `json:"imageFileId"`
	ImageURL    string         `json:"imageUrl"`
	Order       int            `json:"order"`
	IsEnding    bool           `json:"isEnding"`
	Buttons     []ChoiceButton `json:"buttons"`
}

// ChoiceButton is a labeled edge to another scene. Coordinates and sizes
// are percentages of the virtual canvas; the style fields are carried
// through untouched for the renderer.
type ChoiceButton struct {
	ID           string  `json:"id"`
	Text         string  `json:"text"`
	TargetNodeID string  `json:"targetNodeId"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	W            float64 `json:"w"`
	H            float64 `json:"h"`
	BgColor      string  `json:"bgColor"`
	TextColor    string  `json:"textColor"`
	BorderColor  string  `json:"borderColor"`
	BorderWidth  float64 `json:"borderWidth"`
	Opacity      float64 `json:"opacity"`
	Radius       float64 `json:"radius"`
	FontSize     float64 `json:"fontSize"`
	FontWeight   string  `json:"fontWeight"`
	TextAlign    string  `json:"textAlign"`
	Visible      bool    `json:"visible"`
}

// Graph is one draft revision's payload.
type Graph struct {
	ComicMeta ComicMeta   `json:"comicMeta"`
	Nodes     []SceneNode `json:"nodes"`
}

// Node returns the node with the given id, or nil. When the same id
// appears more than once the first occurrence wins, matching the
// validator's duplicate handling.
func (g *Graph) Node(id string) *SceneNode {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// EndingCount returns the number of nodes flagged as endings.
func (g *Graph) EndingCount() int {
	n := 0
	for i := range g.Nodes {
		if g.Nodes[i].IsEnding {
			n++
		}
	}
	return n
}
