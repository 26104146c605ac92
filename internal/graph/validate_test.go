package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func btn(id, text, target string) ChoiceButton {
	return ChoiceButton{ID: id, Text: text, TargetNodeID: target, Visible: true}
}

func linearGraph() *Graph {
	return &Graph{
		ComicMeta: ComicMeta{Title: "Test", StartNodeID: "start"},
		Nodes: []SceneNode{
			{ID: "start", Title: "Start", ImageFileID: "file-1", Buttons: []ChoiceButton{btn("b1", "Go", "end")}},
			{ID: "end", Title: "End", ImageFileID: "file-2", IsEnding: true},
		},
	}
}

func TestValidateCleanGraph(t *testing.T) {
	res := Validate(linearGraph(), Options{Strict: true})

	assert.True(t, res.Valid())
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestValidateEmptyGraph(t *testing.T) {
	res := Validate(&Graph{}, Options{})

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "no nodes")
}

func TestValidateMissingStart(t *testing.T) {
	g := linearGraph()
	g.ComicMeta.StartNodeID = "nope"

	res := Validate(g, Options{Strict: true})

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], `start node "nope" does not exist`)
}

func TestValidateUnreachableEnding(t *testing.T) {
	// start points at orphan, the only ending is never reached.
	g := &Graph{
		ComicMeta: ComicMeta{StartNodeID: "start"},
		Nodes: []SceneNode{
			{ID: "start", ImageFileID: "f1", Buttons: []ChoiceButton{btn("b1", "Go", "orphan")}},
			{ID: "orphan", ImageFileID: "f2", IsEnding: false, Buttons: []ChoiceButton{btn("b2", "Loop", "orphan")}},
			{ID: "end", ImageFileID: "f3", IsEnding: true},
		},
	}

	res := Validate(g, Options{Strict: true})

	assert.False(t, res.Valid())
	assert.Contains(t, res.Errors, `scene "end" is unreachable from the start scene`)
	assert.Contains(t, res.Errors, "no ending scene is reachable from the start scene")
}

func TestValidateSelfTargetWarnsOnly(t *testing.T) {
	g := &Graph{
		ComicMeta: ComicMeta{StartNodeID: "start"},
		Nodes: []SceneNode{
			{ID: "start", ImageFileID: "f1", Buttons: []ChoiceButton{
				btn("b1", "Again", "start"),
				btn("b2", "Done", "end"),
			}},
			{ID: "end", ImageFileID: "f2", IsEnding: true},
		},
	}

	res := Validate(g, Options{Strict: true})

	assert.True(t, res.Valid())
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "targets its own scene")
}

func TestValidateCyclesPermitted(t *testing.T) {
	g := &Graph{
		ComicMeta: ComicMeta{StartNodeID: "a"},
		Nodes: []SceneNode{
			{ID: "a", ImageFileID: "f1", Buttons: []ChoiceButton{btn("b1", "To B", "b")}},
			{ID: "b", ImageFileID: "f2", Buttons: []ChoiceButton{
				btn("b2", "Back", "a"),
				btn("b3", "Finish", "c"),
			}},
			{ID: "c", ImageFileID: "f3", IsEnding: true},
		},
	}

	res := Validate(g, Options{Strict: true})

	assert.True(t, res.Valid())
	assert.Empty(t, res.Warnings)
}

func TestValidateSingleSceneStory(t *testing.T) {
	g := &Graph{
		ComicMeta: ComicMeta{StartNodeID: "only"},
		Nodes:     []SceneNode{{ID: "only", ImageFileID: "f1", IsEnding: true}},
	}

	res := Validate(g, Options{Strict: true})

	assert.True(t, res.Valid())
}

func TestValidateDuplicateNodeID(t *testing.T) {
	g := linearGraph()
	g.Nodes = append(g.Nodes, SceneNode{ID: "end", ImageFileID: "f9", IsEnding: true})

	res := Validate(g, Options{Strict: true})

	assert.Contains(t, res.Errors, `duplicate node id "end"`)
}

func TestValidateDuplicateButtonID(t *testing.T) {
	g := linearGraph()
	g.Nodes[0].Buttons = append(g.Nodes[0].Buttons, btn("b1", "Also go", "end"))

	res := Validate(g, Options{Strict: true})

	assert.Contains(t, res.Errors, `scene "start" has duplicate button id "b1"`)
}

func TestValidateUnknownTarget(t *testing.T) {
	g := linearGraph()
	g.Nodes[0].Buttons = append(g.Nodes[0].Buttons, btn("b2", "Dead end", "missing"))

	res := Validate(g, Options{Strict: true})

	assert.Contains(t, res.Errors, `scene "start" button "Dead end" targets unknown scene "missing"`)
}

func TestValidateDeadEndNonEnding(t *testing.T) {
	g := linearGraph()
	g.Nodes[1].IsEnding = false

	res := Validate(g, Options{Strict: true})

	assert.Contains(t, res.Errors, `scene "end" has no choice buttons and is not an ending`)
	assert.Contains(t, res.Errors, "graph has no ending scene")
}

func TestValidateNoEnding(t *testing.T) {
	g := &Graph{
		ComicMeta: ComicMeta{StartNodeID: "a"},
		Nodes: []SceneNode{
			{ID: "a", ImageFileID: "f1", Buttons: []ChoiceButton{btn("b1", "Loop", "a")}},
		},
	}

	res := Validate(g, Options{Strict: true})

	assert.Contains(t, res.Errors, "graph has no ending scene")
}

func TestValidateUnreachablePolicy(t *testing.T) {
	g := linearGraph()
	g.Nodes = append(g.Nodes, SceneNode{ID: "island", ImageFileID: "f3", IsEnding: true})

	strict := Validate(g, Options{Strict: true})
	assert.Contains(t, strict.Errors, `scene "island" is unreachable from the start scene`)

	lenient := Validate(g, Options{Strict: false})
	assert.True(t, lenient.Valid())
	assert.Contains(t, lenient.Warnings, `scene "island" is unreachable from the start scene`)
}

func TestValidateMissingImageWarns(t *testing.T) {
	g := linearGraph()
	g.Nodes[0].ImageFileID = ""
	g.Nodes[0].ImageURL = ""

	res := Validate(g, Options{Strict: true})

	assert.True(t, res.Valid())
	assert.Contains(t, res.Warnings, `scene "start" has no image`)
}

func TestValidateImageHook(t *testing.T) {
	g := linearGraph()

	var checked []string
	res := Validate(g, Options{
		Strict: true,
		CheckImage: func(fileID string) error {
			checked = append(checked, fileID)
			if fileID == "file-2" {
				return errors.New("upload not found")
			}
			return nil
		},
	})

	assert.ElementsMatch(t, []string{"file-1", "file-2"}, checked)
	assert.Contains(t, res.Errors, `scene "end" image: upload not found`)
}

func TestValidateRepairedFallbackPasses(t *testing.T) {
	// The repair target for garbage payloads must itself validate.
	g := Normalize([]byte(`{"totally": "unrelated"}`))

	res := Validate(g, Options{Strict: true})

	assert.True(t, res.Valid())
}
