package workflow

import (
	"fmt"
	"strings"
)

// Action — действие админа над элементом на проверке.
// Callback data кнопки имеет вид "<verb>_<item_id>";
// разбирается один раз на границе, дальше ходит только enum
type Action int

const (
	ActionApprove Action = iota + 1
	ActionReject
	ActionEdit
	ActionKeepTitle
	ActionKeepSummary
)

var actionVerbs = []struct {
	verb   string
	action Action
}{
	// порядок важен: keep_title и keep_summary длиннее остальных,
	// но друг с другом не пересекаются
	{"keep_title", ActionKeepTitle},
	{"keep_summary", ActionKeepSummary},
	{"approve", ActionApprove},
	{"reject", ActionReject},
	{"edit", ActionEdit},
}

func (a Action) String() string {
	for _, v := range actionVerbs {
		if v.action == a {
			return v.verb
		}
	}
	return "unknown"
}

// CallbackData собирает callback data для inline-кнопки
func (a Action) CallbackData(itemID string) string {
	return a.String() + "_" + itemID
}

// ParseAction разбирает callback data на действие и id элемента
func ParseAction(data string) (Action, string, error) {
	for _, v := range actionVerbs {
		prefix := v.verb + "_"
		if strings.HasPrefix(data, prefix) && len(data) > len(prefix) {
			return v.action, data[len(prefix):], nil
		}
	}
	return 0, "", fmt.Errorf("неизвестное действие: %q", data)
}
