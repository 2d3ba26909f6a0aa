package lang

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

var lang = "en"

// SetLang selects the message language; unknown languages fall back to English per message.
func SetLang(l string) {
	if l != "" {
		lang = l
	}
}

func GetMessage(id MessageID, args ...interface{}) string {
	if m, ok := messages[id]; ok {
		if msg, ok := m[lang]; ok {
			return fmt.Sprintf(msg, args...)
		}
		if msg, ok := m["en"]; ok {
			return fmt.Sprintf(msg, args...)
		}
	}
	logrus.Warnf("Message not found for ID: %s", id)
	return "Message not found"
}
