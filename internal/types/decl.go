package types

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrDeclNotFound is returned for unknown declaration ids.
var ErrDeclNotFound = errors.New("declaration not found")

// DeclKind classifies declarations that lazy references point at.
type DeclKind uint8

const (
	DeclAlias DeclKind = iota + 1
	DeclInterface
	DeclClass
	DeclEnum
	DeclEnumMember
	DeclSymbol
)

func (k DeclKind) String() string {
	switch k {
	case DeclAlias:
		return "alias"
	case DeclInterface:
		return "interface"
	case DeclClass:
		return "class"
	case DeclEnum:
		return "enum"
	case DeclEnumMember:
		return "enum-member"
	case DeclSymbol:
		return "symbol"
	default:
		return fmt.Sprintf("DeclKind(%d)", k)
	}
}

// Decl is what the binder knows about a named declaration. Body may be set
// after lazy references to the declaration already exist, which is how
// self-referential types are expressed.
type Decl struct {
	Kind   DeclKind
	Name   string
	Params []TypeID // type parameters of generic aliases/interfaces/classes
	Body   TypeID
	Parent DeclID // owning enum for enum members
	Const  bool   // const enum
}

type declSlot struct {
	info atomic.Pointer[Decl]
}

// NewDecl registers a declaration without a body.
func (in *Interner) NewDecl(kind DeclKind, name string) DeclID {
	slot := &declSlot{}
	slot.info.Store(&Decl{Kind: kind, Name: name})
	return DeclID(in.decls.append(slot))
}

// DefineDecl replaces the declaration's parameters and body.
func (in *Interner) DefineDecl(id DeclID, params []TypeID, body TypeID) error {
	slot, ok := in.declSlot(id)
	if !ok {
		return fmt.Errorf("decl %d: %w", id, ErrDeclNotFound)
	}
	prev := slot.info.Load()
	next := *prev
	next.Params = cloneIDs(params)
	next.Body = body
	slot.info.Store(&next)
	return nil
}

// UpdateDecl applies fn to a copy of the declaration and publishes it.
func (in *Interner) UpdateDecl(id DeclID, fn func(*Decl)) error {
	slot, ok := in.declSlot(id)
	if !ok {
		return fmt.Errorf("decl %d: %w", id, ErrDeclNotFound)
	}
	next := *slot.info.Load()
	fn(&next)
	next.Params = cloneIDs(next.Params)
	slot.info.Store(&next)
	return nil
}

// DeclInfo returns the current state of a declaration.
func (in *Interner) DeclInfo(id DeclID) (Decl, bool) {
	slot, ok := in.declSlot(id)
	if !ok {
		return Decl{}, false
	}
	return *slot.info.Load(), true
}

func (in *Interner) declSlot(id DeclID) (*declSlot, bool) {
	if id == NoDeclID {
		return nil, false
	}
	slot, ok := in.decls.get(uint32(id))
	if !ok || slot == nil {
		return nil, false
	}
	return slot, true
}

// Lazy returns a reference to a declaration, resolved on demand.
func (in *Interner) Lazy(decl DeclID) TypeID {
	return in.Intern(Type{Kind: KindLazy, Payload: uint32(decl)})
}

// DeclOf returns the declaration behind a lazy, enum or unique symbol type.
func (in *Interner) DeclOf(id TypeID) (DeclID, bool) {
	tt, ok := in.Lookup(id)
	if !ok {
		return NoDeclID, false
	}
	switch tt.Kind {
	case KindLazy, KindEnum, KindUniqueSymbol:
		return DeclID(tt.Payload), true
	}
	return NoDeclID, false
}

// ResolveLazy returns the body of a non-generic declaration. Generic
// declarations resolve only through an application.
func (in *Interner) ResolveLazy(id TypeID) (TypeID, bool) {
	decl, ok := in.DeclOf(id)
	if !ok || in.KindOf(id) != KindLazy {
		return NoTypeID, false
	}
	info, ok := in.DeclInfo(decl)
	if !ok || info.Body == NoTypeID || len(info.Params) > 0 {
		return NoTypeID, false
	}
	return info.Body, true
}

// EnumType returns the type of a whole enum: its declaration paired with the
// union of member values.
func (in *Interner) EnumType(decl DeclID, value TypeID) TypeID {
	return in.Intern(Type{Kind: KindEnum, Payload: uint32(decl), Elem: value})
}

// EnumMember returns the type of a single enum member.
func (in *Interner) EnumMember(member DeclID, value TypeID) TypeID {
	return in.Intern(Type{Kind: KindEnum, Payload: uint32(member), Elem: value})
}

// EnumParent returns the enum declaration owning an enum (member) type.
func (in *Interner) EnumParent(id TypeID) (DeclID, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindEnum {
		return NoDeclID, false
	}
	decl := DeclID(tt.Payload)
	info, ok := in.DeclInfo(decl)
	if !ok {
		return decl, true
	}
	if info.Kind == DeclEnumMember && info.Parent != NoDeclID {
		return info.Parent, true
	}
	return decl, true
}

// UniqueSymbol returns the `unique symbol` type of a symbol declaration.
func (in *Interner) UniqueSymbol(decl DeclID) TypeID {
	return in.Intern(Type{Kind: KindUniqueSymbol, Payload: uint32(decl)})
}
