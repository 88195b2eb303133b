package api

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html"
)

// findAttr returns the value of attr on the first element named tag that
// carries it. When id is non-empty the element must also have that id.
func findAttr(page []byte, tag, id, attr string) (string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	var walk func(n *html.Node) (string, bool)
	walk = func(n *html.Node) (string, bool) {
		if n.Type == html.ElementNode && n.Data == tag {
			var value, elemID string
			found := false
			for _, a := range n.Attr {
				switch a.Key {
				case attr:
					value, found = a.Val, true
				case "id":
					elemID = a.Val
				}
			}
			if found && (id == "" || elemID == id) {
				return value, true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if v, ok := walk(c); ok {
				return v, true
			}
		}
		return "", false
	}

	if v, ok := walk(doc); ok {
		return v, nil
	}
	return "", fmt.Errorf("no <%s %s> element found", tag, attr)
}
