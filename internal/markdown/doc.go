// Package markdown converts catalog documents to HTML.
package markdown
