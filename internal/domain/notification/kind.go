// internal/domain/notification/kind.go
package notification

import "strings"

// Kind is the message category of a schedule. Each kind owns one subject template.
type Kind string

const (
	KindCustom       Kind = "CUSTOM"
	KindReminder     Kind = "REMINDER"
	KindAnnouncement Kind = "ANNOUNCEMENT"
)

var subjectTemplates = map[Kind]string{
	KindCustom:       "%s",
	KindReminder:     "Reminder: %s",
	KindAnnouncement: "Announcement: %s",
}

// ParseKind maps a stored value onto a known kind. Unknown or empty values become KindCustom.
func ParseKind(s string) Kind {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := subjectTemplates[k]; ok {
		return k
	}
	return KindCustom
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := subjectTemplates[k]
	return ok
}

func (k Kind) subjectTemplate() string {
	if tmpl, ok := subjectTemplates[k]; ok {
		return tmpl
	}
	return subjectTemplates[KindCustom]
}
