package terrain

import (
	"reflect"
	"testing"
)

func names(nodes []Node) []string {
	var s []string
	for _, n := range nodes {
		s = append(s, n.Name())
	}
	return s
}

func TestGraphOrder(t *testing.T) {
	var ran []string
	mk := func(name string) Node {
		return NodeFunc(name, func(*FrameContext) { ran = append(ran, name) })
	}
	g := NewGraph()
	for _, n := range []string{"driver", "draw", "compute", "hud"} {
		if err := g.AddNode(mk(n)); err != nil {
			t.Fatal(err)
		}
	}
	edges := [][2]string{{"compute", "draw"}, {"draw", "driver"}}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatal(err)
		}
	}
	order, err := g.Order()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"compute", "draw", "driver", "hud"}
	if got := names(order); !reflect.DeepEqual(got, want) {
		t.Fatalf("order %v, want %v", got, want)
	}
	if err := g.Run(&FrameContext{}); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ran, want) {
		t.Fatalf("ran %v, want %v", ran, want)
	}
}

func TestGraphErrors(t *testing.T) {
	noop := func(*FrameContext) {}
	g := NewGraph()
	g.AddNode(NodeFunc("a", noop))
	g.AddNode(NodeFunc("b", noop))
	if err := g.AddNode(NodeFunc("a", noop)); err == nil {
		t.Error("duplicate node accepted")
	}
	if err := g.AddEdge("a", "missing"); err == nil {
		t.Error("edge to unknown node accepted")
	}
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")
	if _, err := g.Order(); err == nil {
		t.Fatal("cycle accepted")
	}
	if err := g.Run(&FrameContext{}); err == nil {
		t.Fatal("cyclic graph ran")
	}
}

func TestNewRejectsDriverNameClash(t *testing.T) {
	dev := newSoftDevice(testLayout())
	if _, err := New(dev, testLayout(), NodeFunc(DrawNodeName, func(*FrameContext) {})); err == nil {
		t.Fatal("driver with a taken name accepted")
	}
}
