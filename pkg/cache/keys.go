package cache

import (
	"fmt"
	"strings"
)

// Key joins a namespace and its parts with ':', e.g. "signal:AAPL:1h".
func Key(namespace string, parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(namespace)
	for _, p := range parts {
		b.WriteByte(':')
		fmt.Fprint(&b, p)
	}
	return b.String()
}
