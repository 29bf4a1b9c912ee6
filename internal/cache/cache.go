package cache

// Cache is the read-through cache sitting in front of the bbolt stores.
type Cache interface {
	Get(key any) (any, bool)
	Add(key, value any)
	Keys() []any
	Delete(key any)
}
