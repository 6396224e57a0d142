// internal/domain/notification/template.go
package notification

import (
	"fmt"
	"strings"
)

// Placeholder tokens recognised in schedule titles and bodies.
const (
	TokenUser   = "{{user}}"
	TokenCourse = "{{course}}"
)

// Bindings are the values substituted for the placeholder tokens.
type Bindings struct {
	User   string
	Course string
}

// Render substitutes every occurrence of the known tokens in a single pass.
// Unknown tokens are left verbatim and substituted values are never re-scanned.
func Render(template string, b Bindings) string {
	r := strings.NewReplacer(TokenUser, b.User, TokenCourse, b.Course)
	return r.Replace(template)
}

// Message is a rendered, ready-to-send notification.
type Message struct {
	Subject string
	Body    string
}

// Compose renders the subject and body for one recipient. The subject is the
// schedule title wrapped in the kind's template.
func Compose(kind Kind, title, body string, b Bindings) Message {
	subject := fmt.Sprintf(kind.subjectTemplate(), title)
	return Message{
		Subject: Render(subject, b),
		Body:    Render(body, b),
	}
}
