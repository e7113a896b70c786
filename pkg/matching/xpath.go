package matching

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// XPath matches decoded XML documents where the element at path has text
// equal to expected after trimming whitespace. An empty expected only
// requires the element to exist.
func XPath(path, expected string) Matcher[any] {
	compiled, err := etree.CompilePath(path)
	return Func(fmt.Sprintf("XPath %s equal to %q", path, expected), func(v any) bool {
		if err != nil {
			return false
		}
		var el *etree.Element
		switch doc := v.(type) {
		case *etree.Document:
			el = doc.FindElementPath(compiled)
		case *etree.Element:
			el = doc.FindElementPath(compiled)
		default:
			return false
		}
		if el == nil {
			return false
		}
		return expected == "" || strings.TrimSpace(el.Text()) == expected
	})
}
