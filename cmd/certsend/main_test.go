package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shaiso/certsend/internal/mq"
)

func TestBuildRecord(t *testing.T) {
	record, err := buildRecord("Fidelugwuowo Dilibe", "Working man", []string{"membership_id=130932", "note=a=b"})
	if err != nil {
		t.Fatalf("buildRecord: %v", err)
	}

	want := map[string]string{
		"name":             "Fidelugwuowo Dilibe",
		"certificate_name": "Working man",
		"membership_id":    "130932",
		"note":             "a=b",
	}
	if len(record) != len(want) {
		t.Fatalf("expected %d fields, got %v", len(want), record)
	}
	for k, v := range want {
		if record[k] != v {
			t.Errorf("%s: expected %q, got %v", k, v, record[k])
		}
	}
}

func TestBuildRecord_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
	}{
		{"no separator", []string{"oops"}},
		{"empty key", []string{"=value"}},
		{"duplicate", []string{"name=other"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := buildRecord("n", "", tt.fields); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPrintReceipt(t *testing.T) {
	r := mq.Receipt{TaskID: "t-1", CorrelationID: "c-1"}

	var text bytes.Buffer
	if err := printReceipt(&text, r, false); err != nil {
		t.Fatalf("printReceipt: %v", err)
	}
	if !strings.Contains(text.String(), "task_id: t-1") || !strings.Contains(text.String(), "correlation_id: c-1") {
		t.Errorf("unexpected text output %q", text.String())
	}

	var js bytes.Buffer
	if err := printReceipt(&js, r, true); err != nil {
		t.Fatalf("printReceipt: %v", err)
	}
	var got mq.Receipt
	if err := json.Unmarshal(js.Bytes(), &got); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if got != r {
		t.Errorf("expected %+v, got %+v", r, got)
	}
}

func TestRootCmd_RequiresName(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--certificate-name", "x"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error without --name")
	}
}

func TestPushMetrics(t *testing.T) {
	var hits atomic.Int32
	var path atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	pushMetrics("")
	if hits.Load() != 0 {
		t.Fatal("empty url must not push")
	}

	pushMetrics(server.URL)
	if hits.Load() != 1 {
		t.Fatalf("expected 1 push, got %d", hits.Load())
	}
	if got, _ := path.Load().(string); got != "/metrics/job/certsend" {
		t.Errorf("unexpected push path %q", got)
	}
}
