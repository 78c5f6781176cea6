package storage

import "time"

// Storage defines interface for any object storage
type Storage[K comparable, V any] interface {
	Set(key K, value V)
	Get(key K) (V, bool)
	Delete(key K) bool
	Touch(key K) bool
	GetAllValues() []V
	UpdatedBefore(cutoff time.Time) []K
	Count() int
}
