// Package entity defines the native game entity records (characters,
// objects, rooms, exits, accounts, sockets) and the identity table that maps
// process-unique uids to live records. Scripts never hold pointers to these
// records; they hold uids and re-resolve through the Registry on every
// access.
package entity

// Kind tags the entity kinds tracked by the Registry.
type Kind int

const (
	KindNone Kind = iota
	KindChar
	KindObject
	KindRoom
	KindExit
	KindAccount
	KindSocket
)

var kindNames = map[Kind]string{
	KindNone:    "none",
	KindChar:    "char",
	KindObject:  "object",
	KindRoom:    "room",
	KindExit:    "exit",
	KindAccount: "account",
	KindSocket:  "socket",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}
