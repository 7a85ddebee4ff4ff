package cache

// NoopCache never stores anything; every Get misses.
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (NoopCache) Get(_ Key) (*Entry, bool, error) { return nil, false, nil }
func (NoopCache) Put(_ Key, _ *Entry) error       { return nil }
func (NoopCache) Clear() error                    { return nil }
func (NoopCache) Close() error                    { return nil }
