package logctx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestHandler_AddsContextGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(Handler{Handler: slog.NewJSONHandler(&buf, nil)}).With("component", "test")

	ctx := WithRequestData(context.Background(), &RequestData{RequestID: "r-1", Method: "POST", Path: "/mcp"})
	ctx = WithToolCallData(ctx, &ToolCallData{ToolName: "query_customers", Procedure: "query-customers.p"})
	log.InfoContext(ctx, "tool.call.ok")

	var rec struct {
		Component string `json:"component"`
		Req       struct {
			ID     string `json:"id"`
			Method string `json:"method"`
			Path   string `json:"path"`
		} `json:"req"`
		Tool struct {
			Name      string `json:"name"`
			Procedure string `json:"procedure"`
		} `json:"tool"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if rec.Component != "test" {
		t.Fatalf("attrs lost through WithAttrs: %q", buf.String())
	}
	if rec.Req.ID != "r-1" || rec.Req.Method != "POST" || rec.Req.Path != "/mcp" {
		t.Fatalf("unexpected req group: %+v", rec.Req)
	}
	if rec.Tool.Name != "query_customers" || rec.Tool.Procedure != "query-customers.p" {
		t.Fatalf("unexpected tool group: %+v", rec.Tool)
	}
	if got := RequestID(ctx); got != "r-1" {
		t.Fatalf("want request id r-1, got %q", got)
	}
}

func TestHandler_NoContextData(t *testing.T) {
	var buf bytes.Buffer
	slog.New(Handler{Handler: slog.NewJSONHandler(&buf, nil)}).Info("plain")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := rec["req"]; ok {
		t.Fatalf("unexpected req group without request data")
	}
	if RequestID(context.Background()) != "" {
		t.Fatalf("want empty request id")
	}
}
