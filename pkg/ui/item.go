package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/trustmap/pkg/model"
)

// NodeItem wraps model.Node to implement list.Item.
type NodeItem struct {
	Node model.Node
	// Changed marks nodes added or modified by the last reload.
	Changed bool
}

func (i NodeItem) Title() string {
	return i.Node.Label
}

func (i NodeItem) Description() string {
	return fmt.Sprintf("%s %s • %s", i.Node.ID, i.Node.Status, i.Node.Detail())
}

func (i NodeItem) FilterValue() string {
	return strings.Join([]string{i.Node.Label, i.Node.ID, i.Node.Subtitle, string(i.Node.Status), string(i.Node.Kind)}, " ")
}
