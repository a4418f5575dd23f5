package b

import "service"

// Record methods on other types are not checked.
func other(w *service.Window, c *service.Counter, s service.Sample) {
	w.Record(s)
	_ = w.Record(s)
	c.Record(s)
}
