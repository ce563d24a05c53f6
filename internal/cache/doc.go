// Package cache provides a generic LRU cache with an eviction callback.
//
// The callback lets owners of external resources (GPU programs, decoded
// images) release them when an entry leaves the cache:
//
//	programs := cache.New[string, *Program](0, func(_ string, p *Program) {
//	    p.release()
//	})
//	programs.Set(key, p)
//	programs.Trim(32) // explicit size-bound cleanup
//
// A capacity of 0 keeps every entry until Delete, Trim or Clear.
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
