package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dmitrijs2005/todokeeper/internal/client/api"
)

const defaultListLimit = 100

var errUsage = errors.New("usage: <command> <task id>")

// Add prompts for a title and an optional description.
func (a *App) Add(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	title, err := getSimpleText(a.reader, "Enter title", a.out)
	if err != nil {
		return err
	}
	if title == "" {
		return errors.New("title must not be empty")
	}

	var description *string
	text, err := getMultiline(a.reader, "Enter description (optional)", a.out)
	if err != nil {
		return err
	}
	if text != "" {
		description = &text
	}

	task, err := a.api.CreateTask(ctx, title, description)
	if err != nil {
		return a.handleAuthError(err)
	}
	fmt.Fprintf(a.out, "Added #%d\n", task.ID)
	return nil
}

// List prints a page of to-do items. Optional args: skip, limit.
func (a *App) List(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	skip, limit := 0, defaultListLimit
	var err error
	if len(args) > 0 {
		if skip, err = strconv.Atoi(args[0]); err != nil || skip < 0 {
			return errors.New("usage: list [skip] [limit]")
		}
	}
	if len(args) > 1 {
		if limit, err = strconv.Atoi(args[1]); err != nil || limit < 1 {
			return errors.New("usage: list [skip] [limit]")
		}
	}

	tasks, err := a.api.ListTasks(ctx, skip, limit)
	if err != nil {
		return a.handleAuthError(err)
	}
	printTasks(a.out, tasks)
	return nil
}

// Done marks an item completed.
func (a *App) Done(ctx context.Context, args []string) error {
	id, err := a.taskID(args)
	if err != nil {
		return err
	}
	completed := true
	task, err := a.api.UpdateTask(ctx, id, api.TaskUpdate{Completed: &completed})
	if err != nil {
		return a.handleAuthError(err)
	}
	fmt.Fprintln(a.out, formatTask(*task))
	return nil
}

// Edit asks for a new title and description; empty answers keep the current
// value.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := a.taskID(args)
	if err != nil {
		return err
	}

	var upd api.TaskUpdate
	title, err := getSimpleText(a.reader, "New title (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if title != "" {
		upd.Title = &title
	}
	description, err := getMultiline(a.reader, "New description (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if description != "" {
		upd.Description = &description
	}

	if upd.Title == nil && upd.Description == nil {
		fmt.Fprintln(a.out, "Nothing to change")
		return nil
	}

	task, err := a.api.UpdateTask(ctx, id, upd)
	if err != nil {
		return a.handleAuthError(err)
	}
	fmt.Fprintln(a.out, formatTask(*task))
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.taskID(args)
	if err != nil {
		return err
	}
	task, err := a.api.DeleteTask(ctx, id)
	if err != nil {
		return a.handleAuthError(err)
	}
	fmt.Fprintf(a.out, "Deleted #%d %s\n", task.ID, task.Title)
	return nil
}

func (a *App) taskID(args []string) (int64, error) {
	if !a.isLoggedIn() {
		return 0, errNotLoggedIn
	}
	if len(args) == 0 {
		return 0, errUsage
	}
	return parseID(args[0])
}

func formatTask(t api.Task) string {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	s := fmt.Sprintf("[%s] #%d %s", mark, t.ID, t.Title)
	if t.Description != nil && *t.Description != "" {
		s += ": " + *t.Description
	}
	return s
}

func printTasks(w io.Writer, tasks []api.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No to-do items")
		return
	}
	for _, t := range tasks {
		fmt.Fprintln(w, formatTask(t))
	}
}
