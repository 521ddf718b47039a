package usecase

// EntryCount - число пользователей, для которых кеш держит запись
func (c *AggregateCache) EntryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
