package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// TasksList prints the task list.
func TasksList(ctx context.Context, app *App, includeDone bool) error {
	store, err := app.OpenStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	tasks, err := store.Tasks().List(ctx, includeDone)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("no tasks")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tCREATED\tTITLE")
	for _, task := range tasks {
		status := "open"
		if task.Done {
			status = "done"
		}
		title := task.Title
		if task.Notes != "" {
			title += " (" + task.Notes + ")"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", task.ID, status, task.CreatedAt.Format(time.DateOnly), title)
	}
	return w.Flush()
}

// TasksAdd creates a task.
func TasksAdd(ctx context.Context, app *App, title, notes string) error {
	store, err := app.OpenStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	task, err := store.Tasks().Add(ctx, title, notes)
	if err != nil {
		return err
	}
	fmt.Printf("added task #%d: %s\n", task.ID, task.Title)
	return nil
}

// TasksDone marks a task completed.
func TasksDone(ctx context.Context, app *App, id int64) error {
	store, err := app.OpenStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	task, err := store.Tasks().Complete(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("completed task #%d: %s\n", task.ID, task.Title)
	return nil
}

// TasksRemove deletes a task.
func TasksRemove(ctx context.Context, app *App, id int64) error {
	store, err := app.OpenStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Tasks().Delete(ctx, id); err != nil {
		return err
	}
	fmt.Printf("removed task #%d\n", id)
	return nil
}
