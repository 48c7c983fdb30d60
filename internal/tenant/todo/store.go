package todo

import (
	"errors"
	"sort"
	"sync"
)

var ErrTodoNotFound = errors.New("todo not found")

// Todo is one task list entry.
type Todo struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Store holds todos in memory, safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	nextID int
	todos  map[int]*Todo
}

// NewStore seeds the demo task list.
func NewStore() *Store {
	return &Store{
		nextID: 4,
		todos: map[int]*Todo{
			1: {ID: 1, Title: "Write documentation", Completed: false},
			2: {ID: 2, Title: "Review pull requests", Completed: true},
			3: {ID: 3, Title: "Deploy to staging", Completed: false},
		},
	}
}

func (s *Store) List() []Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Todo, 0, len(s.todos))
	for _, t := range s.todos {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Get(id int) (Todo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.todos[id]
	if !ok {
		return Todo{}, false
	}
	return *t, true
}

func (s *Store) Create(title string) Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &Todo{ID: s.nextID, Title: title}
	s.todos[t.ID] = t
	s.nextID++
	return *t
}

func (s *Store) Update(id int, title *string, completed *bool) (Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok {
		return Todo{}, ErrTodoNotFound
	}
	if title != nil {
		t.Title = *title
	}
	if completed != nil {
		t.Completed = *completed
	}
	return *t, nil
}

func (s *Store) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.todos[id]; !ok {
		return ErrTodoNotFound
	}
	delete(s.todos, id)
	return nil
}
