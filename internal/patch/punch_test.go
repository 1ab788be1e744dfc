package patch

import (
	"strings"
	"testing"
)

func TestRouteInstanceEdit(t *testing.T) {
	content := `module root (input clk);
  u1 i_u1 (
    .clk(clk)
  );
endmodule
`
	got, err := RouteInstanceEdit(content, "u1", "i_u1", "punch_out_x_0")
	if err != nil {
		t.Fatalf("RouteInstanceEdit: %v", err)
	}
	if !strings.Contains(got, ".punch_out_x_0(punch_out_x_0),") {
		t.Errorf("missing punch binding, got:\n%s", got)
	}
	if !strings.HasPrefix(got, "module root (input clk);") {
		t.Error("bytes before the instantiation site must be unchanged")
	}
}

func TestRouteInstanceEditNotFound(t *testing.T) {
	content := "module root (); endmodule"
	if _, err := RouteInstanceEdit(content, "u1", "i_u1", "p"); err == nil {
		t.Fatal("expected error for missing instantiation site")
	}
}

func TestRouteModuleEdit(t *testing.T) {
	content := `module u1 (
  input clk
);
endmodule
`
	got, err := RouteModuleEdit(content, "u1", "punch_out_x_0")
	if err != nil {
		t.Fatalf("RouteModuleEdit: %v", err)
	}
	if !strings.Contains(got, "input punch_out_x_0,") {
		t.Errorf("missing input punch port, got:\n%s", got)
	}
}

func TestRouteModuleEditNotFound(t *testing.T) {
	if _, err := RouteModuleEdit("module other(); endmodule", "u1", "p"); err == nil {
		t.Fatal("expected error for missing module declaration")
	}
}
