package textutil

import (
	"strings"

	"golang.org/x/net/html"
)

// blockTags end a line when rendered as plain text.
var blockTags = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "blockquote": true,
}

// HTMLToText renders an HTML fragment as plain text. Script and style
// content is dropped, block elements become line breaks and runs of
// whitespace collapse to a single space.
func HTMLToText(fragment string) string {
	if !strings.ContainsRune(fragment, '<') {
		return strings.TrimSpace(html.UnescapeString(fragment))
	}

	var sb strings.Builder

	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseSpace(sb.String())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)

			if tag == "script" || tag == "style" {
				skip++
			}

			if blockTags[tag] {
				sb.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)

			if (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}

			if blockTags[tag] {
				sb.WriteByte('\n')
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		case html.CommentToken, html.DoctypeToken:
		}
	}
}

func collapseSpace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}

	return strings.Join(out, "\n")
}
