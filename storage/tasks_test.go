package storage

import (
	"context"
	"errors"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTaskAddAndGet(t *testing.T) {
	tasks := testStore(t).Tasks()
	ctx := context.Background()

	added, err := tasks.Add(ctx, "write docs", "for the release")
	if err != nil {
		t.Fatal(err)
	}
	if added.ID == 0 || added.Done {
		t.Errorf("added = %+v", added)
	}

	got, err := tasks.Get(ctx, added.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "write docs" || got.Notes != "for the release" {
		t.Errorf("got = %+v", got)
	}
	if got.CompletedAt != nil {
		t.Error("open task has a completion time")
	}
}

func TestTaskAddEmptyTitle(t *testing.T) {
	tasks := testStore(t).Tasks()
	if _, err := tasks.Add(context.Background(), "", ""); err == nil {
		t.Fatal("expected error for empty title")
	}
}

func TestTaskListFiltersDone(t *testing.T) {
	tasks := testStore(t).Tasks()
	ctx := context.Background()

	first, _ := tasks.Add(ctx, "first", "")
	tasks.Add(ctx, "second", "")
	if _, err := tasks.Complete(ctx, first.ID); err != nil {
		t.Fatal(err)
	}

	open, err := tasks.List(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 || open[0].Title != "second" {
		t.Errorf("open = %+v", open)
	}

	all, err := tasks.List(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("all = %+v", all)
	}
}

func TestTaskCompleteIdempotent(t *testing.T) {
	tasks := testStore(t).Tasks()
	ctx := context.Background()

	task, _ := tasks.Add(ctx, "ship", "")
	done, err := tasks.Complete(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !done.Done || done.CompletedAt == nil {
		t.Errorf("done = %+v", done)
	}

	again, err := tasks.Complete(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Done {
		t.Errorf("again = %+v", again)
	}
}

func TestTaskCompleteMissing(t *testing.T) {
	tasks := testStore(t).Tasks()
	_, err := tasks.Complete(context.Background(), 42)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskDelete(t *testing.T) {
	tasks := testStore(t).Tasks()
	ctx := context.Background()

	task, _ := tasks.Add(ctx, "temp", "")
	if err := tasks.Delete(ctx, task.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := tasks.Get(ctx, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if err := tasks.Delete(ctx, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound on double delete, got %v", err)
	}
}
