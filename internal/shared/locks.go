package shared

import "fmt"

// GenQueueLockKey builds the redis key guarding the generation queue processor.
// Exactly one processor may hold it at a time.
func GenQueueLockKey(queue string) string {
	if queue == "" {
		queue = "default"
	}
	return fmt.Sprintf("genqueue:%s:processor:lock", queue)
}
