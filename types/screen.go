package types

// Bounds is an element's bounding rectangle in screen pixels.
type Bounds struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Center returns the integer midpoint of the rectangle, truncated toward zero.
func (b Bounds) Center() (int, int) {
	return (b.Left + b.Right) / 2, (b.Top + b.Bottom) / 2
}

// UINode is one node of an xpath query result returned by the agent.
type UINode struct {
	Text   *string `json:"text"`
	Bounds *Bounds `json:"bounds"`
}

// TextOrEmpty returns the node text, or "" when the agent omitted it.
func (n UINode) TextOrEmpty() string {
	if n.Text == nil {
		return ""
	}
	return *n.Text
}

// Display is the screen size reported by the agent.
type Display struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// AgentInfo is the subset of the agent /info document bumx reads.
type AgentInfo struct {
	Serial         string   `json:"serial,omitempty"`
	Brand          string   `json:"brand,omitempty"`
	Model          string   `json:"model,omitempty"`
	Version        string   `json:"version,omitempty"`
	CurrentPackage string   `json:"currentPackage,omitempty"`
	Display        *Display `json:"display,omitempty"`
}
