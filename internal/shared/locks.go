package shared

import "fmt"

// OrderLockKey builds redis keys for per-order critical sections.
func OrderLockKey(orderID, documentClass string) string {
	return fmt.Sprintf("lock:order:%s:%s", orderID, documentClass)
}
