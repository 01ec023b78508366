package model

type Task struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// TaskUpdate carries the fields of a partial update. A nil field is left untouched.
type TaskUpdate struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

// Apply copies the present fields of u onto t.
func (u TaskUpdate) Apply(t *Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Completed != nil {
		t.Completed = *u.Completed
	}
}
