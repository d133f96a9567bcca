package repository

import "todo/internal/service"

// taskCache is an insertion-ordered map from task ID to task.
// Replacing an existing ID keeps its original position.
type taskCache struct {
	ids   []string
	tasks map[string]service.Task
}

func newTaskCache() *taskCache {
	return &taskCache{tasks: make(map[string]service.Task)}
}

func (c *taskCache) len() int {
	return len(c.ids)
}

func (c *taskCache) get(id string) (service.Task, bool) {
	t, ok := c.tasks[id]
	return t, ok
}

func (c *taskCache) put(t service.Task) {
	if _, ok := c.tasks[t.ID]; !ok {
		c.ids = append(c.ids, t.ID)
	}
	c.tasks[t.ID] = t
}

func (c *taskCache) remove(id string) {
	if _, ok := c.tasks[id]; !ok {
		return
	}
	delete(c.tasks, id)
	for i, existing := range c.ids {
		if existing == id {
			c.ids = append(c.ids[:i], c.ids[i+1:]...)
			return
		}
	}
}

func (c *taskCache) clear() {
	c.ids = nil
	c.tasks = make(map[string]service.Task)
}

// retain keeps only the tasks for which keep returns true.
func (c *taskCache) retain(keep func(service.Task) bool) {
	ids := c.ids[:0]
	for _, id := range c.ids {
		if keep(c.tasks[id]) {
			ids = append(ids, id)
		} else {
			delete(c.tasks, id)
		}
	}
	c.ids = ids
}

// snapshot returns a copy of the cached tasks in insertion order.
func (c *taskCache) snapshot() []service.Task {
	result := make([]service.Task, 0, len(c.ids))
	for _, id := range c.ids {
		result = append(result, c.tasks[id])
	}
	return result
}
