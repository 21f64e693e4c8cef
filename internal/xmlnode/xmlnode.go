// Package xmlnode implements a small DOM-like tree over encoding/xml's
// streaming tokenizer, namespace-aware, used by every XML-shaped format
// (TTML, the AppleMusicJson TTML body, QRC's XML envelope). Building a
// tree up front (rather than driving generators off raw tokens) is what
// lets the TTML parser look ahead for formatting cues and walk sibling
// spans when resolving translations and background sections.
//
// encoding/xml never resolves external entities or DTDs on its own, so
// this tree is XXE-safe by construction: there is no opt-in for external
// entity expansion to turn on.
package xmlnode

import (
	"encoding/xml"
	"io"
	"strings"
)

type Type int

const (
	Document Type = iota
	Element
	Text
)

// XMLNamespace is the reserved xml: prefix's namespace URI.
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

type Attr struct {
	Name      string // qualified, e.g. "ttm:agent"
	Local     string
	Namespace string
	Value     string
}

type Node struct {
	Type      Type
	Name      string // qualified
	Local     string
	Namespace string
	Attrs     []Attr
	Children  []*Node
	Parent    *Node
	Text      string
}

func NewElement(name string) *Node {
	local := name
	if idx := strings.Index(name, ":"); idx >= 0 {
		local = name[idx+1:]
	}
	return &Node{Type: Element, Name: name, Local: local}
}

func NewText(text string) *Node {
	return &Node{Type: Text, Text: text}
}

func (n *Node) AppendChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	local := name
	if idx := strings.Index(name, ":"); idx >= 0 {
		local = name[idx+1:]
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Local: local, Value: value})
}

func (n *Node) AttrValue(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *Node) AttrValueLocal(local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Local == local && a.Namespace == "" {
			return a.Value, true
		}
	}
	return "", false
}

// AttrValueNS looks up an attribute by namespace+local name, falling back
// to a literal qualified-name match (useful when the source document
// never bothered declaring the namespace it's using, which real-world
// TTML exports routinely do not).
func (n *Node) AttrValueNS(namespace, local, qualified string) (string, bool) {
	if qualified != "" {
		if v, ok := n.AttrValue(qualified); ok {
			return v, true
		}
	}
	if namespace == "" {
		return n.AttrValueLocal(local)
	}
	for _, a := range n.Attrs {
		if a.Local == local && a.Namespace == namespace {
			return a.Value, true
		}
	}
	return "", false
}

func (n *Node) HasAttrLocal(local string) bool {
	_, ok := n.AttrValueLocal(local)
	return ok
}

func (n *Node) TextContent() string {
	if n.Type == Text {
		return n.Text
	}
	var sb strings.Builder
	var walk func(*Node)
	walk = func(node *Node) {
		if node.Type == Text {
			sb.WriteString(node.Text)
			return
		}
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// InnerXML serializes this node's children back to XML text. No format
// package calls it; the TTML generator writes x-translation spans as
// plain text.
func (n *Node) InnerXML() string {
	var sb strings.Builder
	for _, c := range n.Children {
		Serialize(&sb, c, false, 0)
	}
	return sb.String()
}

// NameMatches compares a node's qualified or local name against name.
func NameMatches(n *Node, name string) bool {
	return n.Name == name || n.Local == name
}

// ParseDocument tokenizes input into a Node tree. Namespace prefixes are
// resolved per scope so callers can match on (namespace, local) pairs
// regardless of which prefix the source document happened to use.
func ParseDocument(input string) (*Node, error) {
	dec := xml.NewDecoder(strings.NewReader(input))
	doc := &Node{Type: Document}

	stack := []*Node{doc}
	nsStack := []map[string]string{{"xml": XMLNamespace}}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			parent := stack[len(stack)-1]

			parentNS := nsStack[len(nsStack)-1]
			currNS := make(map[string]string, len(parentNS))
			for k, v := range parentNS {
				currNS[k] = v
			}
			for _, a := range t.Attr {
				if prefix, ok := namespaceDeclPrefix(a); ok {
					currNS[prefix] = a.Value
				}
			}
			nsStack = append(nsStack, currNS)

			prefix := prefixForURI(t.Name.Space, currNS)
			node := &Node{
				Type:      Element,
				Name:      qualify(prefix, t.Name.Local),
				Local:     t.Name.Local,
				Namespace: t.Name.Space,
			}
			for _, a := range t.Attr {
				if _, ok := namespaceDeclPrefix(a); ok {
					continue
				}
				aPrefix := prefixForURI(a.Name.Space, currNS)
				node.Attrs = append(node.Attrs, Attr{
					Name:      qualify(aPrefix, a.Name.Local),
					Local:     a.Name.Local,
					Namespace: a.Name.Space,
					Value:     a.Value,
				})
			}
			parent.AppendChild(node)
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			if len(nsStack) > 1 {
				nsStack = nsStack[:len(nsStack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			text := string(t)
			if text == "" {
				continue
			}
			if n := len(parent.Children); n > 0 && parent.Children[n-1].Type == Text {
				parent.Children[n-1].Text += text
				continue
			}
			parent.AppendChild(&Node{Type: Text, Text: text})
		}
	}
	return doc, nil
}

func namespaceDeclPrefix(a xml.Attr) (string, bool) {
	if a.Name.Space == "xmlns" {
		return a.Name.Local, true
	}
	if a.Name.Space == "" && a.Name.Local == "xmlns" {
		return "", true
	}
	return "", false
}

func prefixForURI(uri string, scope map[string]string) string {
	if uri == "" {
		return ""
	}
	for prefix, space := range scope {
		if space == uri {
			return prefix
		}
	}
	return ""
}

func qualify(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// Serialize writes node (and its descendants) back to XML text. When
// pretty is true, whitespace-only text nodes are dropped and elements
// whose only children are elements get newline+indent formatting —
// mixed content (an element with non-blank text among element children)
// is never re-indented, to avoid silently inventing inter-span spacing.
func Serialize(sb *strings.Builder, node *Node, pretty bool, depth int) {
	switch node.Type {
	case Document:
		for _, c := range node.Children {
			Serialize(sb, c, pretty, depth)
		}
	case Text:
		if pretty && strings.TrimSpace(node.Text) == "" {
			return
		}
		sb.WriteString(escapeText(node.Text))
	case Element:
		sb.WriteString("<")
		sb.WriteString(node.Name)
		for _, a := range node.Attrs {
			sb.WriteString(" ")
			sb.WriteString(a.Name)
			sb.WriteString(`="`)
			sb.WriteString(escapeAttr(a.Value))
			sb.WriteString(`"`)
		}
		if len(node.Children) == 0 {
			sb.WriteString("/>")
			return
		}
		sb.WriteString(">")

		indent := pretty && shouldIndent(node)
		if indent {
			sb.WriteString("\n")
		}
		for _, c := range node.Children {
			if indent {
				sb.WriteString(strings.Repeat("  ", depth+1))
			}
			Serialize(sb, c, pretty, depth+1)
			if indent {
				sb.WriteString("\n")
			}
		}
		if indent {
			sb.WriteString(strings.Repeat("  ", depth))
		}
		sb.WriteString("</")
		sb.WriteString(node.Name)
		sb.WriteString(">")
	}
}

func shouldIndent(node *Node) bool {
	hasElement := false
	for _, c := range node.Children {
		if c.Type == Element {
			hasElement = true
		}
		if c.Type == Text && strings.TrimSpace(c.Text) != "" {
			return false
		}
	}
	return hasElement
}

func escapeText(s string) string {
	if s == "" {
		return ""
	}
	return strings.NewReplacer("&", "&amp;", "<", "&lt;").Replace(s)
}

func escapeAttr(s string) string {
	if s == "" {
		return ""
	}
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;").Replace(s)
}

// FindByPath descends from root matching each path segment in turn
// against any descendant, collecting every terminal match.
func FindByPath(root *Node, path []string) []*Node {
	if root == nil || len(path) == 0 {
		return nil
	}
	var result []*Node
	var walk func(*Node)
	walk = func(node *Node) {
		if node.Type == Document {
			for _, c := range node.Children {
				walk(c)
			}
			return
		}
		if node.Type != Element {
			return
		}
		if NameMatches(node, path[0]) {
			result = append(result, findFrom(node, path[1:])...)
		}
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(root)
	return result
}

func findFrom(node *Node, path []string) []*Node {
	if len(path) == 0 {
		return []*Node{node}
	}
	var result []*Node
	for _, c := range node.Children {
		if c.Type == Element && NameMatches(c, path[0]) {
			result = append(result, findFrom(c, path[1:])...)
		}
	}
	return result
}

// FindAll returns every element node in the tree, document order.
func FindAll(root *Node) []*Node {
	var result []*Node
	var walk func(*Node)
	walk = func(node *Node) {
		if node.Type == Element {
			result = append(result, node)
		}
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(root)
	return result
}

// FindDescendants returns every descendant of root (not root itself)
// matching the predicate.
func FindDescendants(root *Node, match func(*Node) bool) []*Node {
	var result []*Node
	var walk func(*Node)
	walk = func(node *Node) {
		if node.Type == Element && match(node) {
			result = append(result, node)
		}
		for _, c := range node.Children {
			walk(c)
		}
	}
	for _, c := range root.Children {
		walk(c)
	}
	return result
}
