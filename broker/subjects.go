package broker

import "strings"

const SubjectPrefix = "quickjot"

const (
	FolderSubject = SubjectPrefix + ".folder.>"
	NoteSubject   = SubjectPrefix + ".note.>"
	UserSubject   = SubjectPrefix + ".user.>"
	AllSubject    = SubjectPrefix + ".>"
)

// Subject maps an event name such as "note.updated" to its NATS subject.
func Subject(event string) string {
	return SubjectPrefix + "." + event
}

// EventName is the inverse of Subject.
func EventName(subject string) string {
	return strings.TrimPrefix(subject, SubjectPrefix+".")
}
