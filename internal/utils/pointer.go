package utils

// Ptr returns a pointer to a copy of v.
//
//	threadID := utils.Ptr("thread-1")
func Ptr[T any](v T) *T {
	return &v
}
