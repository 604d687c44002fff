// Package timestamp formats the mutation timestamps stored alongside records.
package timestamp

import "time"

// Layout is local time with seconds precision. Values in this layout sort
// lexically in time order.
const Layout = "2006-01-02T15:04:05"

// Format renders t in Layout using the local time zone.
func Format(t time.Time) string {
	return t.Local().Format(Layout)
}

// Now returns the current time in Layout.
func Now() string {
	return Format(time.Now())
}
