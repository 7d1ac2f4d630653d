package entity

// Account is the runtime record of a logged-in player account. The
// persistent account row (credentials, ban status) lives in the model
// package; this record exists so scripts can address accounts through the
// same uid-handle scheme as every other entity kind.
type Account struct {
	base
	Username   string
	Characters []string
}

// NewAccount creates an unregistered account record.
func NewAccount(ar *AuxRegistry, username string) *Account {
	return &Account{base: newBase(KindAccount, ar), Username: username}
}

// AddCharacter records a character name owned by this account.
func (a *Account) AddCharacter(name string) {
	for _, n := range a.Characters {
		if n == name {
			return
		}
	}
	a.Characters = append(a.Characters, name)
}

// Socket is the runtime record of one connected session: which account it
// authenticated as and which character it is driving. The transport behind
// it is out of scope; the record exists for the handle scheme and for
// session accounting.
type Socket struct {
	base
	AccountUID uint64
	CharUID    uint64
}

// NewSocket creates an unregistered socket record for an account.
func NewSocket(ar *AuxRegistry, accountUID uint64) *Socket {
	return &Socket{base: newBase(KindSocket, ar), AccountUID: accountUID}
}
