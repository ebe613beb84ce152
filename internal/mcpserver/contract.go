package mcpserver

// SyntaxGuide describes the markdown dialect the preview renders, so LLM
// consumers write documents that render as intended.
const SyntaxGuide = `# inkpad Markdown Syntax

inkpad renders GitHub Flavored Markdown with a few additions.

## Supported

- **Tables**, **task lists** (` + "`- [x] done`" + `), ~~strikethrough~~ and bare
  URL autolinks.
- **Math**: ` + "`$x^2$`" + ` inline, ` + "`$$x^2$$`" + ` display, or a block fenced by
  ` + "`$$`" + ` lines. A single dollar followed by a space or a digit after the
  closing dollar is left as text, so prices like $5 stay literal.
- **Line breaks**: a single newline inside a paragraph is a line break.
- **Code**: fenced blocks with a language (` + "```go" + `) are syntax
  highlighted and get a copy button.
- **Headings** get GitHub-style ids: lowercase, punctuation dropped, spaces
  become ` + "`-`" + `, duplicates get ` + "`-1`" + `, ` + "`-2`" + `. Link to them with
  ` + "`[see setup](#setup)`" + `.
- **External links** (http, https) open in a new tab.
- **Raw HTML** is admitted when enabled, then sanitized: scripts, event
  handler attributes and ` + "`javascript:`" + ` URLs are always removed.

## Front matter

An optional YAML block fenced by ` + "`---`" + ` at the very top is read for
` + "`title`" + ` and ` + "`tags`" + `. It is rendered as ordinary markdown in the preview.

## Export

Exports are plain markdown. The filename is sanitized: path separators,
` + "`:*?\"<>|`" + ` and whitespace are removed and ` + "`.md`" + ` is appended.
`
