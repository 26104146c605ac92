package graph

import (
	"encoding/json"
	"fmt"
)

// Virtual canvas the editor lays buttons out on. Coordinates in a payload
// are percentages of this canvas; legacy editors exported absolute pixels
// against the same canvas, which Normalize rescales.
const (
	CanvasWidth  = 1080.0
	CanvasHeight = 1920.0
)

// Defaults applied to buttons whose numeric or style fields are missing.
const (
	defaultButtonX        = 30.0
	defaultButtonY        = 80.0
	defaultButtonW        = 40.0
	defaultButtonH        = 8.0
	defaultButtonRadius   = 8.0
	defaultButtonFontSize = 14.0
	defaultBgColor        = "#1f2937"
	defaultTextColor      = "#ffffff"
	defaultBorderColor    = "#111827"
	defaultFontWeight     = "normal"
	defaultTextAlign      = "center"
)

// rawGraph mirrors Graph with pointer fields so missing values can be told
// apart from zero values while defaulting.
type rawGraph struct {
	ComicMeta *rawMeta  `json:"comicMeta"`
	Nodes     []rawNode `json:"nodes"`
}

type rawMeta struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	CoverFileID      string   `json:"coverFileId"`
	CoverImage       string   `json:"coverImage"`
	Genres           []string `json:"genres"`
	Tags             []string `json:"tags"`
	StartNodeID      string   `json:"startNodeId"`
	EstimatedMinutes *int     `json:"estimatedMinutes"`
}

type rawNode struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	ImageFileID string      `json:"imageFileId"`
	ImageURL    string      `json:"imageUrl"`
	Order       *int        `json:"order"`
	IsEnding    bool        `json:"isEnding"`
	Buttons     []rawButton `json:"buttons"`
}

type rawButton struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	TargetNodeID string   `json:"targetNodeId"`
	X            *float64 `json:"x"`
	Y            *float64 `json:"y"`
	W            *float64 `json:"w"`
	H            *float64 `json:"h"`
	BgColor      string   `json:"bgColor"`
	TextColor    string   `json:"textColor"`
	BorderColor  string   `json:"borderColor"`
	BorderWidth  *float64 `json:"borderWidth"`
	Opacity      *float64 `json:"opacity"`
	Radius       *float64 `json:"radius"`
	FontSize     *float64 `json:"fontSize"`
	FontWeight   string   `json:"fontWeight"`
	TextAlign    string   `json:"textAlign"`
	Visible      *bool    `json:"visible"`
}

// Normalize coerces an arbitrary payload into a canonical Graph. It never
// fails: unrecognized or empty shapes collapse to a minimal single-node
// graph, missing ids are synthesized from position, numeric fields get
// defaults, and out-of-range coordinates are reinterpreted as canvas
// pixels and rescaled to percentages. Normalize is idempotent.
func Normalize(raw any) *Graph {
	data := toJSON(raw)

	var rg rawGraph
	if data == nil || json.Unmarshal(data, &rg) != nil || len(rg.Nodes) == 0 {
		return fallbackGraph(rg.ComicMeta)
	}

	g := &Graph{Nodes: make([]SceneNode, 0, len(rg.Nodes))}
	if rg.ComicMeta != nil {
		g.ComicMeta = ComicMeta{
			Title:       rg.ComicMeta.Title,
			Description: rg.ComicMeta.Description,
			CoverFileID: rg.ComicMeta.CoverFileID,
			CoverImage:  rg.ComicMeta.CoverImage,
			Genres:      rg.ComicMeta.Genres,
			Tags:        rg.ComicMeta.Tags,
			StartNodeID: rg.ComicMeta.StartNodeID,
		}
		if rg.ComicMeta.EstimatedMinutes != nil && *rg.ComicMeta.EstimatedMinutes > 0 {
			g.ComicMeta.EstimatedMinutes = *rg.ComicMeta.EstimatedMinutes
		}
	}
	if g.ComicMeta.Genres == nil {
		g.ComicMeta.Genres = []string{}
	}
	if g.ComicMeta.Tags == nil {
		g.ComicMeta.Tags = []string{}
	}

	for i, rn := range rg.Nodes {
		node := SceneNode{
			ID:          rn.ID,
			Title:       rn.Title,
			ImageFileID: rn.ImageFileID,
			ImageURL:    rn.ImageURL,
			IsEnding:    rn.IsEnding,
			Buttons:     make([]ChoiceButton, 0, len(rn.Buttons)),
		}
		if node.ID == "" {
			node.ID = fmt.Sprintf("node-%d", i+1)
		}
		if rn.Order != nil {
			node.Order = *rn.Order
		} else {
			node.Order = i
		}
		for j, rb := range rn.Buttons {
			node.Buttons = append(node.Buttons, normalizeButton(node.ID, j, rb))
		}
		g.Nodes = append(g.Nodes, node)
	}

	// The declared start must resolve; fall back to the first node.
	if g.Node(g.ComicMeta.StartNodeID) == nil {
		g.ComicMeta.StartNodeID = g.Nodes[0].ID
	}
	return g
}

func normalizeButton(nodeID string, index int, rb rawButton) ChoiceButton {
	b := ChoiceButton{
		ID:           rb.ID,
		Text:         rb.Text,
		TargetNodeID: rb.TargetNodeID,
		BgColor:      rb.BgColor,
		TextColor:    rb.TextColor,
		BorderColor:  rb.BorderColor,
		FontWeight:   rb.FontWeight,
		TextAlign:    rb.TextAlign,
		X:            percent(rb.X, defaultButtonX, CanvasWidth),
		Y:            percent(rb.Y, defaultButtonY, CanvasHeight),
		W:            percent(rb.W, defaultButtonW, CanvasWidth),
		H:            percent(rb.H, defaultButtonH, CanvasHeight),
		Opacity:      floatOr(rb.Opacity, 1),
		Radius:       floatOr(rb.Radius, defaultButtonRadius),
		FontSize:     floatOr(rb.FontSize, defaultButtonFontSize),
		BorderWidth:  floatOr(rb.BorderWidth, 0),
		Visible:      true,
	}
	if b.ID == "" {
		b.ID = fmt.Sprintf("%s-btn-%d", nodeID, index+1)
	}
	if b.BgColor == "" {
		b.BgColor = defaultBgColor
	}
	if b.TextColor == "" {
		b.TextColor = defaultTextColor
	}
	if b.BorderColor == "" {
		b.BorderColor = defaultBorderColor
	}
	if b.FontWeight == "" {
		b.FontWeight = defaultFontWeight
	}
	if b.TextAlign == "" {
		b.TextAlign = defaultTextAlign
	}
	if rb.Visible != nil {
		b.Visible = *rb.Visible
	}
	return b
}

// percent returns v as a canvas percentage. Values outside [0,100] are
// treated as absolute pixels against the given canvas dimension and
// rescaled, then clamped.
func percent(v *float64, def, canvas float64) float64 {
	if v == nil {
		return def
	}
	p := *v
	if p < 0 || p > 100 {
		p = p / canvas * 100
	}
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// fallbackGraph is the repair target for payloads that do not look like a
// graph at all: a single scene that can serve as both start and ending.
func fallbackGraph(meta *rawMeta) *Graph {
	g := &Graph{
		ComicMeta: ComicMeta{
			StartNodeID: "node-1",
			Genres:      []string{},
			Tags:        []string{},
		},
		Nodes: []SceneNode{{
			ID:       "node-1",
			Title:    "Scene 1",
			IsEnding: true,
			Buttons:  []ChoiceButton{},
		}},
	}
	if meta != nil {
		g.ComicMeta.Title = meta.Title
		g.ComicMeta.Description = meta.Description
		g.ComicMeta.CoverFileID = meta.CoverFileID
		g.ComicMeta.CoverImage = meta.CoverImage
		if meta.Genres != nil {
			g.ComicMeta.Genres = meta.Genres
		}
		if meta.Tags != nil {
			g.ComicMeta.Tags = meta.Tags
		}
	}
	return g
}

func toJSON(raw any) []byte {
	switch v := raw.(type) {
	case nil:
		return nil
	case []byte:
		return v
	case json.RawMessage:
		return v
	case string:
		return []byte(v)
	default:
		b, err := json.Marshal(raw)
		if err != nil {
			return nil
		}
		return b
	}
}
