package aggregate

import (
	"hsedash/domain/finding"
)

// OthersLabel replaces locations outside the top N in flow diagrams.
const OthersLabel = "Others"

// ParentNode is one object parent with the object names counted under it.
type ParentNode struct {
	Parent   string  `json:"parent"`
	Count    int     `json:"count"`
	Children []Count `json:"children"`
}

// ParentTree groups exploded rows by object parent and, within each parent,
// by object name. Parents are ordered by row count and limited to the top n
// (all when n <= 0). Rows without a parent are skipped.
func ParentTree(exploded []finding.Finding, n int) []ParentNode {
	parents := newCounter()
	children := make(map[string]*counter)

	for _, row := range exploded {
		parent := row.Field(finding.ColObjectParent)
		if isPlaceholder(parent) {
			continue
		}
		parents.add(parent, 1)
		c, ok := children[parent]
		if !ok {
			c = newCounter()
			children[parent] = c
		}
		if !isPlaceholder(row.ObjectName) {
			c.add(row.ObjectName, 1)
		}
	}

	top := limit(parents.sorted(), n)
	out := make([]ParentNode, len(top))
	for i, p := range top {
		out[i] = ParentNode{Parent: p.Label, Count: p.Count, Children: children[p.Label].sorted()}
	}
	return out
}

// Link is a weighted edge of a flow diagram between two stages.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Value  int    `json:"value"`
}

// FlowGraph is a three-stage category, object, location flow.
type FlowGraph struct {
	Stages []finding.Column `json:"stages"`
	Nodes  []string         `json:"nodes"`
	Links  []Link           `json:"links"`
}

// Flows builds category to object parent to location links over exploded
// rows. The object stage uses the object name when no parent column exists.
// Rows missing a value at any available stage are dropped. With n > 0 only
// the top n middle nodes are kept and locations outside the top n are merged
// into "Others". Links within each stage pair are ordered by weight.
func Flows(exploded []finding.Finding, schema finding.Schema, n int) FlowGraph {
	stages := flowStages(schema)
	graph := FlowGraph{Stages: stages, Nodes: []string{}, Links: []Link{}}
	if len(stages) < 2 {
		return graph
	}

	paths := make([][]string, 0, len(exploded))
	for _, row := range exploded {
		path := make([]string, len(stages))
		complete := true
		for i, col := range stages {
			path[i] = row.Field(col)
			if isPlaceholder(path[i]) {
				complete = false
				break
			}
		}
		if complete {
			paths = append(paths, path)
		}
	}

	if n > 0 {
		paths = keepTop(paths, 1, n)
		if len(stages) > 2 {
			paths = groupOthers(paths, 2, n)
		}
	}

	nodes := newCounter()
	for _, path := range paths {
		for _, label := range path {
			nodes.add(label, 0)
		}
	}
	graph.Nodes = append(graph.Nodes, nodes.order...)

	for i := 0; i < len(stages)-1; i++ {
		links := newCounter()
		ends := make(map[string][2]string)
		for _, path := range paths {
			key := path[i] + "\x00" + path[i+1]
			links.add(key, 1)
			ends[key] = [2]string{path[i], path[i+1]}
		}
		for _, c := range links.sorted() {
			e := ends[c.Label]
			graph.Links = append(graph.Links, Link{Source: e[0], Target: e[1], Value: c.Count})
		}
	}
	return graph
}

func flowStages(schema finding.Schema) []finding.Column {
	middle := finding.ColObject
	if schema.Has(finding.ColObjectParent) {
		middle = finding.ColObjectParent
	}
	var stages []finding.Column
	for _, col := range []finding.Column{finding.ColCategory, middle, finding.ColLocation} {
		if schema.Has(col) {
			stages = append(stages, col)
		}
	}
	return stages
}

func stageCounts(paths [][]string, stage int) *counter {
	c := newCounter()
	for _, p := range paths {
		c.add(p[stage], 1)
	}
	return c
}

func topSet(c *counter, n int) map[string]struct{} {
	set := make(map[string]struct{}, n)
	for _, item := range limit(c.sorted(), n) {
		set[item.Label] = struct{}{}
	}
	return set
}

func keepTop(paths [][]string, stage, n int) [][]string {
	top := topSet(stageCounts(paths, stage), n)
	out := make([][]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := top[p[stage]]; ok {
			out = append(out, p)
		}
	}
	return out
}

func groupOthers(paths [][]string, stage, n int) [][]string {
	top := topSet(stageCounts(paths, stage), n)
	for _, p := range paths {
		if _, ok := top[p[stage]]; !ok {
			p[stage] = OthersLabel
		}
	}
	return paths
}
