package models

// Task is a to-do item owned by exactly one account.
type Task struct {
	ID          int64
	Title       string
	Description *string
	Completed   bool
	OwnerID     int64
}

// TaskCreate holds the fields accepted when creating a task.
type TaskCreate struct {
	Title       string
	Description *string
}

// TaskUpdate carries the task fields to change. Nil fields are left
// untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
}

// Apply copies every set field of u onto t.
func (u TaskUpdate) Apply(t *Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = u.Description
	}
	if u.Completed != nil {
		t.Completed = *u.Completed
	}
}
