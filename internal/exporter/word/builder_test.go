package word

import (
	"strings"
	"testing"

	"github.com/nguyenthenguyen/docx"

	"route-recon/internal/config"
	"route-recon/internal/model"
)

func TestWordExport(t *testing.T) {
	ops := []*model.Operation{
		{
			Verb: "GET", Pattern: "/users/{id}", MethodName: "getUser", Controller: "com.example.UserController",
			Parameters: []model.Parameter{{Name: "id", Type: "java.lang.String", In: model.SourcePath, Required: true}},
			Response:   model.Response{Types: []string{"com.example.User"}},
		},
		{
			Verb: "POST", Pattern: "/users", MethodName: "create", Controller: "com.example.UserController",
			RequestBody: &model.RequestBody{Type: "com.example.User", Required: true, ContentType: model.ContentTypeJSON},
			Response:    model.Response{Types: []string{"void"}},
		},
	}
	summary := model.Summarize(1, ops)
	summary.ProjectName = "demo"

	cfg := &config.Config{Output: config.OutputConfig{Dir: t.TempDir(), FileName: "report"}}
	if err := NewWordExporter().Export(summary, ops, cfg); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	r, err := docx.ReadDocxFile(cfg.GetOutputPath(".docx"))
	if err != nil {
		t.Fatalf("Failed to open generated document: %v", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	for _, want := range []string{"demo", "[GET] /users/{id}", "[POST] /users", "REQUEST BODY: User", "RESPONSE: User"} {
		if !strings.Contains(content, want) {
			t.Errorf("Document missing %q", want)
		}
	}
	for _, placeholder := range []string{"{{Date}}", "{{Content}}", "{{TotalOperations}}"} {
		if strings.Contains(content, placeholder) {
			t.Errorf("Placeholder %s was not replaced", placeholder)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate kept %q", got)
	}
	if got := truncate("java.util.Map<String,Object>", 10); got != "java.ut..." {
		t.Errorf("truncate = %q", got)
	}
}
