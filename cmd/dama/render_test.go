package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"dama/internal/control"
)

func TestSnapshotShowsCurrentPageOnly(t *testing.T) {
	built := buildInline(t, deskCommands())
	populateVisible(built.Root)

	want := "# Desk\n" +
		"[Audio] | Power\n" +
		"  Audio\n" +
		"    Output\n" +
		"    volume 35 [0..100]\n" +
		"    sink: headphones (speakers|headphones)\n"
	if diff := cmp.Diff(want, snapshot(built.Title, built.Root)); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestPopulateVisibleLeavesOtherPagesUnbuilt(t *testing.T) {
	commands := deskCommands()
	built := buildInline(t, commands)
	populateVisible(built.Root)

	if calls := commands.CallsTo("night-state"); len(calls) != 0 {
		t.Fatalf("expected hidden page to stay unbuilt, got %d calls", len(calls))
	}
	notebook := built.Root.(*control.Notebook)
	notebook.Select(1)
	populateVisible(built.Root)
	if calls := commands.CallsTo("night-state"); len(calls) != 1 {
		t.Fatalf("expected one initialize after switching page, got %d", len(calls))
	}
	populateVisible(built.Root)
	if calls := commands.CallsTo("night-state"); len(calls) != 1 {
		t.Fatalf("expected repeated populate to build nothing, got %d calls", len(calls))
	}

	texts := make([]string, 0)
	for _, line := range layoutRows(built.Root) {
		texts = append(texts, line.text)
	}
	want := []string{"Audio | [Power]", "Power", "[x] Night mode", "< Suspend >"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestFindControlSearchesBuiltPages(t *testing.T) {
	built := buildInline(t, deskCommands())
	populateVisible(built.Root)

	if _, ok := findControl(built.Root, "volume").(*control.Scale); !ok {
		t.Fatalf("expected to find volume scale")
	}
	if findControl(built.Root, "night") != nil {
		t.Fatalf("expected unbuilt page controls to be missing")
	}
	if findControl(built.Root, "missing") != nil {
		t.Fatalf("expected nil for unknown name")
	}
	if firstNotebook(built.Root) != built.Root {
		t.Fatalf("expected root notebook")
	}
}

func TestControlText(t *testing.T) {
	combo := &control.ComboBox{Meta: control.Meta{Name: "sink"}}
	combo.SetOptions([]string{"a", "b"})
	scale := &control.Scale{Low: -1, High: 1.5}
	scale.SetValue(0.25)
	button := &control.Button{Text: "Go"}
	image := &control.Image{Path: "/tmp/logo.png"}

	cases := []struct {
		control control.Control
		want    string
	}{
		{combo, "sink: - (a|b)"},
		{scale, "scale 0.25 [-1..1.5]"},
		{button, "< Go >"},
		{image, "[image /tmp/logo.png]"},
	}
	for _, tc := range cases {
		if got := controlText(tc.control); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}
