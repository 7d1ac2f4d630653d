package bind

import (
	"github.com/driftmud/driftmud/game/entity"
)

// AccountRef is the binding surface for one account uid.
type AccountRef struct {
	b   *Binder
	uid uint64
}

func (r AccountRef) Handle() Handle { return Handle{Kind: entity.KindAccount, UID: r.uid} }

func (r AccountRef) UID() uint64 { return r.uid }

func (r AccountRef) resolve() (*entity.Account, error) {
	acc, ok := r.b.reg.Account(r.uid)
	if !ok {
		return nil, gone(r.Handle())
	}
	return acc, nil
}

func (r AccountRef) Exists() bool {
	_, ok := r.b.reg.Account(r.uid)
	return ok
}

func (r AccountRef) Username() (string, error) {
	acc, err := r.resolve()
	if err != nil {
		return "", err
	}
	return acc.Username, nil
}

// Characters returns a snapshot of character names owned by the account.
func (r AccountRef) Characters() ([]string, error) {
	acc, err := r.resolve()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(acc.Characters))
	copy(out, acc.Characters)
	return out, nil
}

func (r AccountRef) AddCharacter(name string) error {
	acc, err := r.resolve()
	if err != nil {
		return err
	}
	acc.AddCharacter(name)
	return nil
}

func (r AccountRef) SetVar(name string, val any) error {
	acc, err := r.resolve()
	if err != nil {
		return err
	}
	acc.SetVar(name, val)
	return nil
}

func (r AccountRef) GetVar(name string) (any, error) {
	acc, err := r.resolve()
	if err != nil {
		return nil, err
	}
	v, _ := acc.GetVar(name)
	return v, nil
}

func (r AccountRef) HasVar(name string) (bool, error) {
	acc, err := r.resolve()
	if err != nil {
		return false, err
	}
	return acc.HasVar(name), nil
}

func (r AccountRef) DeleteVar(name string) error {
	acc, err := r.resolve()
	if err != nil {
		return err
	}
	acc.DeleteVar(name)
	return nil
}

// SocketRef is the binding surface for one socket uid.
type SocketRef struct {
	b   *Binder
	uid uint64
}

func (r SocketRef) Handle() Handle { return Handle{Kind: entity.KindSocket, UID: r.uid} }

func (r SocketRef) UID() uint64 { return r.uid }

func (r SocketRef) resolve() (*entity.Socket, error) {
	sk, ok := r.b.reg.Socket(r.uid)
	if !ok {
		return nil, gone(r.Handle())
	}
	return sk, nil
}

func (r SocketRef) Exists() bool {
	_, ok := r.b.reg.Socket(r.uid)
	return ok
}

// Account returns a handle to the account this socket authenticated as, or
// None before authentication.
func (r SocketRef) Account() (Handle, error) {
	sk, err := r.resolve()
	if err != nil {
		return None, err
	}
	if sk.AccountUID == 0 {
		return None, nil
	}
	return Handle{Kind: entity.KindAccount, UID: sk.AccountUID}, nil
}

// Char returns a handle to the character the socket is driving, or None.
func (r SocketRef) Char() (Handle, error) {
	sk, err := r.resolve()
	if err != nil {
		return None, err
	}
	if sk.CharUID == 0 {
		return None, nil
	}
	return Handle{Kind: entity.KindChar, UID: sk.CharUID}, nil
}

// SetChar binds the socket to a character. A zero ref unbinds.
func (r SocketRef) SetChar(ch CharRef) error {
	sk, err := r.resolve()
	if err != nil {
		return err
	}
	if ch.uid != 0 {
		if _, err := ch.resolve(); err != nil {
			return err
		}
	}
	sk.CharUID = ch.uid
	return nil
}
