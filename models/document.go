package models

import "strings"

// Mark is an inline style applied to a text node (bold, link, ...).
type Mark struct {
	Type  string                 `json:"type"`
	Attrs map[string]interface{} `json:"attrs,omitempty"`
}

// Document is a node of the editor's rich-text tree. The root node is
// usually of type "doc"; leaves carry text.
type Document struct {
	Type    string                 `json:"type,omitempty"`
	Attrs   map[string]interface{} `json:"attrs,omitempty"`
	Content []Document             `json:"content,omitempty"`
	Marks   []Mark                 `json:"marks,omitempty"`
	Text    string                 `json:"text,omitempty"`
}

// ExtractPlainText flattens a document into the text used for search.
// Each node contributes its own text followed by its children's text joined
// with a single space.
func ExtractPlainText(doc *Document) string {
	if doc == nil {
		return ""
	}
	text := doc.Text
	if len(doc.Content) > 0 {
		parts := make([]string, len(doc.Content))
		for i := range doc.Content {
			parts[i] = ExtractPlainText(&doc.Content[i])
		}
		text += strings.Join(parts, " ")
	}
	return strings.TrimSpace(text)
}

// ParseDocument decodes stored note content. Null content yields a nil document.
func ParseDocument(content JSON) (*Document, error) {
	if content.IsNull() {
		return nil, nil
	}
	var doc Document
	if err := content.Unmarshal(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
