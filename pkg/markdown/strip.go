// Package markdown holds the small amount of markdown post-processing applied
// to generated answers before they are shown.
package markdown

import "regexp"

// boldPair matches one **...** pair. The lazy group makes the first closing
// delimiter win, and "." does not cross line breaks.
var boldPair = regexp.MustCompile(`\*\*(.*?)\*\*`)

// StripBold removes the delimiters of every **bold** span, keeping the inner
// text verbatim. Pairs are matched left to right and never overlap, so
// "**x**y**z**" becomes "xyz". No other markdown is touched.
func StripBold(s string) string {
	return boldPair.ReplaceAllString(s, "$1")
}
