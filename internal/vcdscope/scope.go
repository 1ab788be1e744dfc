// Package vcdscope walks a VCD file's scope tree (§4.2 Phase A), grounded
// on original_source/source/vcd_parser.py's VcdParser.parse.
package vcdscope

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Node is one scope in the raw VCD tree, keyed by the VCD scope identifier
// that named it (not yet correlated with source text — that's §4.2 Phase
// B/C, done by internal/hierarchy).
type Node struct {
	ID           string
	Parent       *Node
	Children     []*Node
	SignalWidths map[string]int
}

func newNode(id string, parent *Node) *Node {
	n := &Node{ID: id, Parent: parent, SignalWidths: map[string]int{}}
	if parent != nil {
		parent.Children = append(parent.Children, n)
	}
	return n
}

// Walk scans a VCD byte stream and returns the synthetic root of the
// module-scope tree. Only $scope/$upscope/$var lines matter; everything
// else (timestamps, value changes, $var for non-wire types we don't model
// here) is ignored.
//
// Struct/interface/union scopes increment a depth counter instead of
// pushing a tree node; $var lines seen while that counter is nonzero are
// dropped (they belong to a struct member, not a module signal) and
// $scope module lines seen while it's nonzero are ignored too, per §4.2's
// explicit rule that a module scope only pushes when struct-depth is zero.
func Walk(r io.Reader) *Node {
	root := newNode("$root", nil)
	current := root
	structDepth := 0

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "$scope"):
			fields := strings.Fields(line)
			if len(fields) < 3 {
				continue
			}
			kind, id := fields[1], fields[2]
			switch kind {
			case "module":
				if structDepth == 0 {
					current = newNode(id, current)
				}
			case "struct", "interface", "union":
				structDepth++
			}

		case strings.HasPrefix(line, "$upscope"):
			if structDepth > 0 {
				structDepth--
			} else if current.Parent != nil {
				current = current.Parent
			}
			// Unbalanced $upscope at the root is ignored silently, per §4.2.

		case strings.HasPrefix(line, "$var"):
			if structDepth != 0 {
				continue
			}
			name, width, ok := parseVar(line)
			if ok {
				current.SignalWidths[name] = width
			}
		}
	}

	return root
}

// parseVar extracts the bare signal name and bit width from a
// "$var wire <width> <id> <name>[<bits>] $end" line. The optional
// "[<bits>]" range suffix is stripped from the recorded name.
func parseVar(line string) (name string, width int, ok bool) {
	fields := strings.Fields(line)
	// $var wire <width> <id> <name>... $end
	if len(fields) < 6 || fields[1] != "wire" {
		return "", 0, false
	}
	w, err := strconv.Atoi(fields[2])
	if err != nil {
		return "", 0, false
	}
	rawName := fields[4]
	if idx := strings.IndexByte(rawName, '['); idx >= 0 {
		rawName = rawName[:idx]
	}
	return rawName, w, true
}
