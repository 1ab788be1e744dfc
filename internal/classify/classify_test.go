package classify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/texerai/alf/internal/model"
)

func TestHTTPClassifierClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("```json\n{\"fuzz_candidates\":[{\"name\":\"a\",\"certainty\":80},{\"name\":\"b\",\"certainty\":60}],\"clock\":\"clk\",\"reset\":\"rst_n\",\"edge\":\"posedge\"}\n```"))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, "test-model", 5*time.Second, 1000, time.Millisecond)
	result, err := c.Classify(context.Background(), "m", "module m(); endmodule")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(result.FuzzCandidates) != 2 || result.FuzzCandidates[0].Name != "a" {
		t.Errorf("unexpected candidates: %v", result.FuzzCandidates)
	}
	if result.Control.Clock != "clk" || result.Control.Edge != "posedge" {
		t.Errorf("unexpected control signals: %+v", result.Control)
	}
}

func TestValidateCandidatesDropsUnknown(t *testing.T) {
	result := model.ClassifyResult{FuzzCandidates: []model.FuzzCandidate{
		{Name: "a", Certainty: 90},
		{Name: "ghost", Certainty: 50},
	}}
	widths := map[string]int{"a": 1, "b": 8}

	valid, dropped := ValidateCandidates(result, widths)
	if len(valid) != 1 || valid[0].Name != "a" {
		t.Errorf("valid = %v, want [a]", valid)
	}
	if len(dropped) != 1 || dropped[0] != "ghost" {
		t.Errorf("dropped = %v, want [ghost]", dropped)
	}
}

func TestCleanJSONResponseStripsFences(t *testing.T) {
	got := cleanJSONResponse([]byte("```json\n{\"a\":1}\n```"))
	if string(got) != `{"a":1}` {
		t.Errorf("cleanJSONResponse() = %q", got)
	}
}
