package atx

import "fmt"

type strategy int

const (
	strategyID strategy = iota
	strategyClass
	strategyText
	strategyXPath
)

func (s strategy) String() string {
	switch s {
	case strategyID:
		return "id"
	case strategyClass:
		return "class"
	case strategyText:
		return "text"
	case strategyXPath:
		return "xpath"
	default:
		return "unknown"
	}
}

// By is a lookup criterion. Build one with ByID, ByClass, ByText or ByXPath.
type By struct {
	strategy strategy
	value    string
}

// ByID matches an Android resource-id.
func ByID(value string) By { return By{strategy: strategyID, value: value} }

// ByClass matches an Android widget class name.
func ByClass(value string) By { return By{strategy: strategyClass, value: value} }

// ByText matches displayed text.
func ByText(value string) By { return By{strategy: strategyText, value: value} }

// ByXPath evaluates an XPath expression against the live UI tree.
func ByXPath(value string) By { return By{strategy: strategyXPath, value: value} }

func (b By) Value() string { return b.value }

func (b By) IsXPath() bool { return b.strategy == strategyXPath }

func (b By) String() string {
	return fmt.Sprintf("%s=%q", b.strategy, b.value)
}

// uiSelector is the uiautomator selector object for non-XPath strategies.
func (b By) uiSelector() map[string]string {
	switch b.strategy {
	case strategyID:
		return map[string]string{"resourceId": b.value}
	case strategyClass:
		return map[string]string{"className": b.value}
	default:
		return map[string]string{"text": b.value}
	}
}
