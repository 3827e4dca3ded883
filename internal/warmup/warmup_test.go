package warmup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chatharvard/chatharvard-go/internal/catalog"
	"github.com/chatharvard/chatharvard-go/internal/logger"
	"github.com/chatharvard/chatharvard-go/internal/metrics"
	"github.com/chatharvard/chatharvard-go/internal/rag"
)

type staticSource struct {
	records []catalog.CourseRecord
	err     error
}

func (s staticSource) LoadCourses(context.Context) ([]catalog.CourseRecord, error) {
	return s.records, s.err
}

func testBuilder(t *testing.T) (*Builder, *rag.Provider) {
	t.Helper()
	provider := rag.NewProvider()
	log := logger.New("error")
	b := NewBuilder(provider, nil, metrics.New(prometheus.NewRegistry()), log)
	return b, provider
}

func TestRebuildPublishesIndex(t *testing.T) {
	b, provider := testBuilder(t)
	src := staticSource{records: []catalog.CourseRecord{
		{Code: "CS 50", Title: "Introduction to Computer Science"},
		{Code: "STAT 110", Title: "Introduction to Probability"},
	}}

	idx, err := b.Rebuild(context.Background(), src, "boot")
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if idx.Store.Len() != 2 {
		t.Errorf("Store.Len() = %d, want 2", idx.Store.Len())
	}
	if !provider.Ready() {
		t.Error("provider not ready after Rebuild")
	}
	current, err := provider.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if current != idx {
		t.Error("Current() did not return the published index")
	}
}

func TestRebuildSkipsMalformedRecords(t *testing.T) {
	b, _ := testBuilder(t)
	src := staticSource{records: []catalog.CourseRecord{
		{Code: "CS 50", Title: "Introduction to Computer Science"},
		{Code: "", Title: "No code"},
		{Code: "STAT 110", Title: ""},
	}}

	idx, err := b.Rebuild(context.Background(), src, "poll")
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if idx.Store.Len() != 1 {
		t.Errorf("Store.Len() = %d, want 1 (malformed records dropped, not fatal)", idx.Store.Len())
	}
}

func TestRebuildLoadErrorLeavesProviderUntouched(t *testing.T) {
	b, provider := testBuilder(t)
	src := staticSource{err: errors.New("disk gone")}

	if _, err := b.Rebuild(context.Background(), src, "poll"); err == nil {
		t.Fatal("Rebuild() with a failing source should error")
	}
	if provider.Ready() {
		t.Error("failed rebuild must not publish an index")
	}
}

func TestReadinessLifecycle(t *testing.T) {
	state := NewReadinessState(time.Hour)

	if state.IsReady() {
		t.Error("fresh state reports ready")
	}
	status := state.Status()
	if status.Ready || status.Reason == "" {
		t.Errorf("not-ready status = %+v, want a reason", status)
	}

	state.MarkReady()
	if !state.IsReady() || !state.IndexBuilt() {
		t.Error("state not ready after MarkReady")
	}
	if got := state.Status(); !got.Ready || got.Reason != "" {
		t.Errorf("ready status = %+v, want no reason", got)
	}
}

func TestReadinessTimeoutFallback(t *testing.T) {
	state := NewReadinessState(time.Nanosecond)
	time.Sleep(time.Millisecond)

	if !state.IsReady() {
		t.Error("state not ready after timeout")
	}
	if state.IndexBuilt() {
		t.Error("IndexBuilt true without MarkReady")
	}
	if got := state.Status(); got.Reason == "" {
		t.Error("timeout readiness should carry an explanatory reason")
	}
}
