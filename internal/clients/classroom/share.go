// Package classroom builds Google Classroom share links.
package classroom

import "net/url"

const shareEndpoint = "https://classroom.google.com/share"

// ShareURL returns the link that opens the Classroom share dialog for
// target with the given title.
func ShareURL(target, title string) string {
	q := url.Values{}
	q.Set("url", target)
	q.Set("title", title)
	return shareEndpoint + "?" + q.Encode()
}
