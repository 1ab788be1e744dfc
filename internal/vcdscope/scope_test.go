package vcdscope

import (
	"strings"
	"testing"
)

func TestWalkBasicHierarchy(t *testing.T) {
	vcd := `$scope module top $end
$var wire 1 ! clk $end
$scope module inner $end
$var wire 8 " data[7:0] $end
$upscope $end
$upscope $end
`
	root := Walk(strings.NewReader(vcd))
	if len(root.Children) != 1 {
		t.Fatalf("expected 1 top-level child, got %d", len(root.Children))
	}
	top := root.Children[0]
	if top.ID != "top" {
		t.Errorf("top.ID = %q, want top", top.ID)
	}
	if top.SignalWidths["clk"] != 1 {
		t.Errorf("top clk width = %d, want 1", top.SignalWidths["clk"])
	}
	if len(top.Children) != 1 || top.Children[0].ID != "inner" {
		t.Fatalf("expected inner child of top")
	}
	if top.Children[0].SignalWidths["data"] != 8 {
		t.Errorf("inner data width = %d, want 8", top.Children[0].SignalWidths["data"])
	}
}

func TestWalkStructScopeDoesNotPush(t *testing.T) {
	vcd := `$scope module top $end
$scope struct s $end
$scope module inner $end
$upscope $end
$upscope $end
$upscope $end
`
	root := Walk(strings.NewReader(vcd))
	if len(root.Children) != 1 {
		t.Fatalf("expected 1 top-level child, got %d", len(root.Children))
	}
	top := root.Children[0]
	if len(top.Children) != 0 {
		t.Errorf("module scope nested under struct must not push a node, got %d children", len(top.Children))
	}
}

func TestWalkStructVarsDropped(t *testing.T) {
	vcd := `$scope module top $end
$scope struct s $end
$var wire 4 # hidden $end
$upscope $end
$var wire 1 ! visible $end
$upscope $end
`
	root := Walk(strings.NewReader(vcd))
	top := root.Children[0]
	if _, ok := top.SignalWidths["hidden"]; ok {
		t.Error("signal declared under $scope struct must not appear on the module node")
	}
	if _, ok := top.SignalWidths["visible"]; !ok {
		t.Error("expected visible signal to be recorded on top")
	}
}

func TestWalkUnbalancedUpscopeIgnored(t *testing.T) {
	vcd := `$upscope $end
$scope module top $end
$upscope $end
`
	root := Walk(strings.NewReader(vcd))
	if len(root.Children) != 1 {
		t.Fatalf("expected top to still be recorded despite leading unbalanced $upscope")
	}
}
