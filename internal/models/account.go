package models

// Account is the root aggregate: a user with embedded tasks and objectives.
// Task order is insertion order; the last element is the most recent push.
type Account struct {
	ID           string      `json:"id"`
	Username     string      `json:"name"`
	PasswordHash string      `json:"-"`
	Email        string      `json:"email"`
	Tasks        []Task      `json:"tasks"`
	Objectives   []Objective `json:"objectives"`
}

// Clone returns a copy that shares no slices with a.
func (a Account) Clone() Account {
	out := a
	if a.Tasks != nil {
		out.Tasks = make([]Task, len(a.Tasks))
		for i, t := range a.Tasks {
			out.Tasks[i] = t.Clone()
		}
	}
	if a.Objectives != nil {
		out.Objectives = append([]Objective(nil), a.Objectives...)
	}
	return out
}

// TaskByID returns the embedded task with the given id.
func (a Account) TaskByID(id string) (Task, bool) {
	for _, t := range a.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// LatestTask returns the task at the highest sequence position.
func (a Account) LatestTask() (Task, bool) {
	if len(a.Tasks) == 0 {
		return Task{}, false
	}
	return a.Tasks[len(a.Tasks)-1], true
}

// Clone returns a copy that shares no date pointers with t.
func (t Task) Clone() Task {
	if t.StartDate != nil {
		start := *t.StartDate
		t.StartDate = &start
	}
	if t.EndDate != nil {
		end := *t.EndDate
		t.EndDate = &end
	}
	return t
}

// UserInput carries credentials for signup and login.
type UserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Response is the envelope every resolver returns. Code mirrors HTTP status codes.
type Response struct {
	Code    int      `json:"code"`
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Token   string   `json:"token,omitempty"`
	User    *Account `json:"user,omitempty"`
	Task    *Task    `json:"task,omitempty"`
}
