package vhdl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ha1tch/fsm-designer/pkg/diagram"
)

func sample() *diagram.Backup {
	d := diagram.New()
	a := diagram.NewNode(100, 100)
	a.Text = "idle"
	d.AddNode(a)
	return d.Backup()
}

func TestGeneratePostsFormField(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		got = r.FormValue("fsm")
		w.Write([]byte("entity fsm is\nend fsm;\n"))
	}))
	defer srv.Close()

	out, err := New(srv.URL, time.Second).Generate(context.Background(), sample())
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "entity fsm is\nend fsm;\n" {
		t.Errorf("got %q", out)
	}
	b, err := diagram.ParseBackup([]byte(got))
	if err != nil {
		t.Fatalf("posted field is not a snapshot: %v", err)
	}
	if len(b.Nodes) != 1 || b.Nodes[0].Text != "idle" {
		t.Errorf("posted snapshot = %+v", b)
	}
}

func TestGenerateEmptyOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\n"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Generate(context.Background(), sample())
	if !errors.Is(err, ErrNoOutput) {
		t.Errorf("got %v, want ErrNoOutput", err)
	}
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, WithRetry(3, time.Millisecond))
	out, err := c.Generate(context.Background(), sample())
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "ok" || calls.Load() != 3 {
		t.Errorf("got (%q, %d calls), want (ok, 3)", out, calls.Load())
	}
}

func TestGenerateClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "missing fsm", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, WithRetry(3, time.Millisecond))
	_, err := c.Generate(context.Background(), sample())
	if !errors.Is(err, ErrService) {
		t.Errorf("got %v, want ErrService", err)
	}
	if calls.Load() != 1 {
		t.Errorf("got %d calls, want 1", calls.Load())
	}
}
