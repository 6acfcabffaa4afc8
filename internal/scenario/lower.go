package scenario

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"tsolver/internal/types"
)

var builtins = map[string]types.TypeID{
	"error":     types.TypeError,
	"never":     types.TypeNever,
	"unknown":   types.TypeUnknown,
	"any":       types.TypeAny,
	"void":      types.TypeVoid,
	"undefined": types.TypeUndefined,
	"null":      types.TypeNull,
	"boolean":   types.TypeBoolean,
	"number":    types.TypeNumber,
	"string":    types.TypeString,
	"bigint":    types.TypeBigInt,
	"symbol":    types.TypeSymbol,
	"object":    types.TypeObject,
	"true":      types.TypeTrue,
	"false":     types.TypeFalse,
	"Function":  types.TypeFunction,
}

type declState uint8

const (
	statePending declState = iota
	stateLowering
	stateDone
)

type declared struct {
	spec  Ref
	state declState
	decl  types.DeclID
	lazy  types.TypeID
	id    types.TypeID
}

// lowerer turns references into interned types. Declared names are lowered
// on first use; a name met again while its own body is being lowered
// resolves to its lazy handle, which is how recursive types are built.
type lowerer struct {
	in      *types.Interner
	decls   map[string]*declared
	members map[string]types.TypeID
	scopes  []map[string]types.TypeID
}

func newLowerer(in *types.Interner, decls map[string]Ref) *lowerer {
	l := &lowerer{
		in:      in,
		decls:   make(map[string]*declared, len(decls)),
		members: make(map[string]types.TypeID),
	}
	for name, spec := range decls {
		l.decls[name] = &declared{spec: spec}
	}
	return l
}

// lowerAll lowers every declared name so that errors surface before any
// case runs.
func (l *lowerer) lowerAll() error {
	for _, name := range slices.Sorted(maps.Keys(l.decls)) {
		if _, err := l.declared(name); err != nil {
			return err
		}
	}
	return nil
}

func (l *lowerer) push(scope map[string]types.TypeID) { l.scopes = append(l.scopes, scope) }
func (l *lowerer) pop()                               { l.scopes = l.scopes[:len(l.scopes)-1] }

func (l *lowerer) bind(name string, id types.TypeID) {
	if len(l.scopes) == 0 {
		l.push(map[string]types.TypeID{})
	}
	l.scopes[len(l.scopes)-1][name] = id
}

// resolve lowers an optional reference; a missing one is NoTypeID.
func (l *lowerer) resolve(r Ref) (types.TypeID, error) {
	if r.IsZero() {
		return types.NoTypeID, nil
	}
	return l.lower(r.raw)
}

// require lowers a mandatory table field.
func (l *lowerer) require(t table, key string) (types.TypeID, error) {
	raw, ok := t[key]
	if !ok {
		return types.NoTypeID, fmt.Errorf("%w: %s needs %q", ErrInvalidType, t.kind(), key)
	}
	return l.lower(raw)
}

// optional lowers a table field that may be absent.
func (l *lowerer) optional(t table, key string) (types.TypeID, error) {
	raw, ok := t[key]
	if !ok {
		return types.NoTypeID, nil
	}
	return l.lower(raw)
}

func (l *lowerer) list(raw any) ([]types.TypeID, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an array, got %T", ErrInvalidType, raw)
	}
	out := make([]types.TypeID, len(items))
	for i, item := range items {
		id, err := l.lower(item)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

func (l *lowerer) lower(raw any) (types.TypeID, error) {
	switch v := raw.(type) {
	case string:
		return l.name(strings.TrimSpace(v))
	case bool:
		return l.in.BooleanLiteral(v), nil
	case int64:
		f, err := safecast.Convert[float64](v)
		if err != nil {
			return types.NoTypeID, fmt.Errorf("%w: %v", ErrInvalidType, err)
		}
		return l.in.NumberLiteral(f), nil
	case float64:
		return l.in.NumberLiteral(v), nil
	case map[string]any:
		return l.table(table(v), types.NoDeclID)
	case Ref:
		return l.resolve(v)
	}
	return types.NoTypeID, fmt.Errorf("%w: unexpected %T", ErrInvalidType, raw)
}

func (l *lowerer) name(s string) (types.TypeID, error) {
	if s == "" {
		return types.NoTypeID, fmt.Errorf("%w: empty name", ErrUnknownType)
	}
	if lit, ok := quoted(s); ok {
		return l.in.StringLiteral(lit), nil
	}
	if elem, ok := strings.CutSuffix(s, "[]"); ok {
		id, err := l.name(strings.TrimSpace(elem))
		if err != nil {
			return types.NoTypeID, err
		}
		return l.in.Array(id), nil
	}
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if id, ok := l.scopes[i][s]; ok {
			return id, nil
		}
	}
	if id, ok := builtins[s]; ok {
		return id, nil
	}
	if _, ok := l.decls[s]; ok {
		return l.declared(s)
	}
	if owner, _, ok := strings.Cut(s, "."); ok {
		if _, declaredOwner := l.decls[owner]; declaredOwner {
			if _, err := l.declared(owner); err != nil {
				return types.NoTypeID, err
			}
		}
		if id, ok := l.members[s]; ok {
			return id, nil
		}
	}
	if digits, ok := strings.CutSuffix(s, "n"); ok {
		if _, err := strconv.ParseInt(digits, 10, 64); err == nil {
			return l.in.BigIntLiteral(digits), nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return l.in.NumberLiteral(f), nil
	}
	return types.NoTypeID, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

func quoted(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	if q := s[0]; (q == '\'' || q == '"') && s[len(s)-1] == q {
		return s[1 : len(s)-1], true
	}
	return "", false
}

func (l *lowerer) declared(name string) (types.TypeID, error) {
	d := l.decls[name]
	switch d.state {
	case stateDone:
		return d.id, nil
	case stateLowering:
		if d.lazy == types.NoTypeID {
			return types.NoTypeID, fmt.Errorf("%w: %s refers to itself", ErrInvalidType, name)
		}
		return d.lazy, nil
	}
	d.state = stateLowering
	outer := l.scopes
	l.scopes = nil
	id, err := l.declare(name, d)
	l.scopes = outer
	if err != nil {
		return types.NoTypeID, fmt.Errorf("types.%s: %w", name, err)
	}
	d.id, d.state = id, stateDone
	return id, nil
}

func (l *lowerer) declare(name string, d *declared) (types.TypeID, error) {
	raw, isTable := d.spec.raw.(map[string]any)
	if !isTable {
		d.decl = l.in.NewDecl(types.DeclAlias, name)
		d.lazy = l.in.Lazy(d.decl)
		body, err := l.resolve(d.spec)
		if err != nil {
			return types.NoTypeID, err
		}
		return body, l.in.DefineDecl(d.decl, nil, body)
	}
	t := table(raw)
	switch t.kind() {
	case "enum":
		return l.enum(name, t)
	case "type_param":
		return l.typeParam(name, t)
	case "unique_symbol":
		return l.in.UniqueSymbol(l.in.NewDecl(types.DeclSymbol, name)), nil
	}

	kind := types.DeclAlias
	switch {
	case t.flag("nominal"):
		kind = types.DeclClass
	case t.flag("interface"):
		kind = types.DeclInterface
	}
	d.decl = l.in.NewDecl(kind, name)
	d.lazy = l.in.Lazy(d.decl)

	var params []types.TypeID
	if raw, ok := t["params"]; ok {
		scope, ids, err := l.typeParams(raw)
		if err != nil {
			return types.NoTypeID, err
		}
		params = ids
		l.push(scope)
		defer l.pop()
	}
	body, err := l.table(t, d.decl)
	if err != nil {
		return types.NoTypeID, err
	}
	if err := l.in.DefineDecl(d.decl, params, body); err != nil {
		return types.NoTypeID, err
	}
	if len(params) > 0 {
		return d.lazy, nil
	}
	return body, nil
}

// typeParams declares a parameter list. Each entry is a name or a table
// with name, constraint and default; later entries may refer to earlier
// ones.
func (l *lowerer) typeParams(raw any) (map[string]types.TypeID, []types.TypeID, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, nil, fmt.Errorf("%w: params must be an array", ErrInvalidType)
	}
	scope := make(map[string]types.TypeID, len(items))
	ids := make([]types.TypeID, 0, len(items))
	l.push(scope)
	defer l.pop()
	for _, item := range items {
		var (
			id  types.TypeID
			err error
		)
		switch v := item.(type) {
		case string:
			id = l.in.NewTypeParam(v, types.NoTypeID, types.NoTypeID)
			scope[v] = id
		case map[string]any:
			t := table(v)
			name, _ := t.str("name")
			if name == "" {
				return nil, nil, fmt.Errorf("%w: type parameter without a name", ErrInvalidType)
			}
			if id, err = l.typeParam(name, t); err != nil {
				return nil, nil, err
			}
			scope[name] = id
		default:
			return nil, nil, fmt.Errorf("%w: unexpected type parameter %T", ErrInvalidType, item)
		}
		ids = append(ids, id)
	}
	return scope, ids, nil
}

func (l *lowerer) typeParam(name string, t table) (types.TypeID, error) {
	if n, ok := t.str("name"); ok && n != "" {
		name = n
	}
	constraint, err := l.optional(t, "constraint")
	if err != nil {
		return types.NoTypeID, err
	}
	def, err := l.optional(t, "default")
	if err != nil {
		return types.NoTypeID, err
	}
	return l.in.NewTypeParam(name, constraint, def), nil
}

// enum declares an enum and its members. Members are referenced as
// "Enum.Member"; the enum itself carries the union of the member values.
func (l *lowerer) enum(name string, t table) (types.TypeID, error) {
	if n, ok := t.str("name"); ok && n != "" {
		name = n
	}
	decl := l.in.NewDecl(types.DeclEnum, name)
	if t.flag("const") {
		if err := l.in.UpdateDecl(decl, func(d *types.Decl) { d.Const = true }); err != nil {
			return types.NoTypeID, err
		}
	}
	raw, ok := t["members"].(map[string]any)
	if !ok || len(raw) == 0 {
		return types.NoTypeID, fmt.Errorf("%w: enum %s needs members", ErrInvalidType, name)
	}
	values := make([]types.TypeID, 0, len(raw))
	for _, member := range slices.Sorted(maps.Keys(raw)) {
		var value types.TypeID
		switch v := raw[member].(type) {
		case string:
			value = l.in.StringLiteral(v)
		case int64, float64:
			id, err := l.lower(v)
			if err != nil {
				return types.NoTypeID, err
			}
			value = id
		default:
			return types.NoTypeID, fmt.Errorf("%w: enum member %s.%s must be a string or a number", ErrInvalidType, name, member)
		}
		md := l.in.NewDecl(types.DeclEnumMember, member)
		if err := l.in.UpdateDecl(md, func(d *types.Decl) { d.Parent = decl }); err != nil {
			return types.NoTypeID, err
		}
		l.members[name+"."+member] = l.in.EnumMember(md, value)
		values = append(values, value)
	}
	return l.in.EnumType(decl, l.in.UnionOf(values)), nil
}

func (l *lowerer) table(t table, self types.DeclID) (types.TypeID, error) {
	in := l.in
	switch kind := t.kind(); kind {
	case "ref":
		return l.require(t, "to")
	case "literal":
		return l.literal(t)
	case "array":
		elem, err := l.require(t, "element")
		if err != nil {
			return types.NoTypeID, err
		}
		if t.flag("readonly") {
			return in.ReadonlyArray(elem), nil
		}
		return in.Array(elem), nil
	case "readonly":
		inner, err := l.require(t, "type")
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Readonly(inner), nil
	case "tuple":
		return l.tuple(t)
	case "object":
		return l.object(t, self)
	case "function":
		fn, err := l.function(t)
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Function(fn), nil
	case "callable":
		return l.callable(t)
	case "union", "intersection":
		raw, ok := t["members"]
		if !ok {
			return types.NoTypeID, fmt.Errorf("%w: %s needs members", ErrInvalidType, kind)
		}
		members, err := l.list(raw)
		if err != nil {
			return types.NoTypeID, err
		}
		if kind == "union" {
			return in.UnionOf(members), nil
		}
		return in.IntersectionOf(members), nil
	case "conditional":
		return l.conditional(t)
	case "mapped":
		return l.mapped(t)
	case "index":
		object, err := l.require(t, "object")
		if err != nil {
			return types.NoTypeID, err
		}
		index, err := l.require(t, "index")
		if err != nil {
			return types.NoTypeID, err
		}
		return in.IndexAccess(object, index), nil
	case "keyof":
		inner, err := l.require(t, "type")
		if err != nil {
			return types.NoTypeID, err
		}
		return in.KeyOf(inner), nil
	case "template":
		return l.template(t)
	case "type_param":
		name, _ := t.str("name")
		if name == "" {
			return types.NoTypeID, fmt.Errorf("%w: type_param needs a name", ErrInvalidType)
		}
		return l.typeParam(name, t)
	case "infer":
		name, _ := t.str("name")
		if name == "" {
			return types.NoTypeID, fmt.Errorf("%w: infer needs a name", ErrInvalidType)
		}
		constraint, err := l.optional(t, "constraint")
		if err != nil {
			return types.NoTypeID, err
		}
		id := in.NewInfer(name, constraint)
		l.bind(name, id)
		return id, nil
	case "unique_symbol":
		name, _ := t.str("name")
		return in.UniqueSymbol(in.NewDecl(types.DeclSymbol, name)), nil
	case "enum":
		name, _ := t.str("name")
		if name == "" {
			return types.NoTypeID, fmt.Errorf("%w: inline enum needs a name", ErrInvalidType)
		}
		return l.enum(name, t)
	case "app":
		base, err := l.require(t, "base")
		if err != nil {
			return types.NoTypeID, err
		}
		if in.KindOf(base) != types.KindLazy {
			return types.NoTypeID, fmt.Errorf("%w: app base %s is not a generic declaration", ErrInvalidType, types.Label(in, base))
		}
		var args []types.TypeID
		if raw, ok := t["args"]; ok {
			if args, err = l.list(raw); err != nil {
				return types.NoTypeID, err
			}
		}
		return in.ApplicationOf(base, args), nil
	case "intrinsic":
		name, _ := t.str("name")
		ik, ok := types.ParseStringIntrinsic(name)
		if !ok {
			return types.NoTypeID, fmt.Errorf("%w: unknown string intrinsic %q", ErrInvalidType, name)
		}
		arg, err := l.require(t, "type")
		if err != nil {
			return types.NoTypeID, err
		}
		return in.StringIntrinsic(ik, arg), nil
	case "":
		return types.NoTypeID, fmt.Errorf("%w: table without kind", ErrInvalidType)
	default:
		return types.NoTypeID, fmt.Errorf("%w: unknown kind %q", ErrInvalidType, kind)
	}
}

func (l *lowerer) literal(t table) (types.TypeID, error) {
	if digits, ok := t.str("bigint"); ok {
		return l.in.BigIntLiteral(digits), nil
	}
	switch v := t["value"].(type) {
	case string:
		return l.in.StringLiteral(v), nil
	case bool, int64, float64:
		return l.lower(v)
	}
	return types.NoTypeID, fmt.Errorf("%w: literal needs a value", ErrInvalidType)
}

// spec reports whether raw is a member description (a table with a type
// field and no kind) rather than a type.
func spec(raw any) (table, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	t := table(m)
	if _, hasKind := m["kind"]; hasKind {
		return nil, false
	}
	_, hasType := m["type"]
	return t, hasType
}

func (l *lowerer) tuple(t table) (types.TypeID, error) {
	items, _ := t["elements"].([]any)
	elems := make([]types.TupleElement, 0, len(items))
	for _, item := range items {
		var el types.TupleElement
		if s, ok := spec(item); ok {
			id, err := l.require(s, "type")
			if err != nil {
				return types.NoTypeID, err
			}
			el.Type = id
			el.Optional = s.flag("optional")
			el.Rest = s.flag("rest")
			if name, ok := s.str("name"); ok {
				el.Name = l.in.Atom(name)
			}
		} else {
			id, err := l.lower(item)
			if err != nil {
				return types.NoTypeID, err
			}
			el.Type = id
		}
		elems = append(elems, el)
	}
	id := l.in.Tuple(elems)
	if t.flag("readonly") {
		id = l.in.Readonly(id)
	}
	return id, nil
}

func (l *lowerer) properties(raw any, self types.DeclID) ([]types.Property, error) {
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: props must be a table", ErrInvalidType)
	}
	props := make([]types.Property, 0, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		p := types.Property{Name: l.in.Atom(name)}
		s, ok := spec(m[name])
		if !ok {
			id, err := l.lower(m[name])
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", name, err)
			}
			p.Type = id
			props = append(props, p)
			continue
		}
		var err error
		if p.Type, err = l.require(s, "type"); err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		if p.Write, err = l.optional(s, "write"); err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		p.Optional = s.flag("optional")
		p.Readonly = s.flag("readonly")
		p.Method = s.flag("method")
		switch vis, _ := s.str("visibility"); vis {
		case "", "public":
		case "protected":
			p.Visibility = types.Protected
		case "private":
			p.Visibility = types.Private
		default:
			return nil, fmt.Errorf("%w: property %s has visibility %q", ErrInvalidType, name, vis)
		}
		if p.Visibility != types.Public {
			p.Parent = self
		}
		props = append(props, p)
	}
	return props, nil
}

func (l *lowerer) index(raw any, key types.TypeID) (*types.IndexSignature, error) {
	if raw == nil {
		return nil, nil
	}
	sig := &types.IndexSignature{Key: key}
	if s, ok := spec(raw); ok {
		var err error
		if sig.Value, err = l.require(s, "type"); err != nil {
			return nil, err
		}
		sig.Readonly = s.flag("readonly")
		return sig, nil
	}
	value, err := l.lower(raw)
	if err != nil {
		return nil, err
	}
	sig.Value = value
	return sig, nil
}

func (l *lowerer) object(t table, self types.DeclID) (types.TypeID, error) {
	if t.flag("nominal") && self == types.NoDeclID {
		name, _ := t.str("name")
		self = l.in.NewDecl(types.DeclClass, name)
	}
	props, err := l.properties(t["props"], self)
	if err != nil {
		return types.NoTypeID, err
	}
	shape := types.ObjectShape{Props: props}
	if shape.StringIndex, err = l.index(t["string_index"], types.TypeString); err != nil {
		return types.NoTypeID, err
	}
	if shape.NumberIndex, err = l.index(t["number_index"], types.TypeNumber); err != nil {
		return types.NoTypeID, err
	}
	if t.flag("nominal") {
		shape.Nominal = self
	}
	if t.flag("fresh") {
		return l.in.FreshObject(shape), nil
	}
	return l.in.Object(shape), nil
}

func (l *lowerer) function(t table) (types.FunctionShape, error) {
	var fn types.FunctionShape
	if raw, ok := t["type_params"]; ok {
		scope, ids, err := l.typeParams(raw)
		if err != nil {
			return fn, err
		}
		fn.TypeParams = ids
		l.push(scope)
		defer l.pop()
	}
	if raw, ok := t["params"]; ok {
		params, err := l.params(raw)
		if err != nil {
			return fn, err
		}
		fn.Params = params
	}
	var err error
	if fn.This, err = l.optional(t, "this"); err != nil {
		return fn, err
	}
	if fn.Return, err = l.optional(t, "returns"); err != nil {
		return fn, err
	}
	if fn.Return == types.NoTypeID {
		fn.Return = types.TypeVoid
	}
	fn.Constructor = t.flag("constructor")
	fn.Method = t.flag("method")
	return fn, nil
}

// params lowers a parameter list. Entries are types or tables with type,
// name, optional and rest.
func (l *lowerer) params(raw any) ([]types.Param, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: params must be an array", ErrInvalidType)
	}
	out := make([]types.Param, 0, len(items))
	for i, item := range items {
		p := types.Param{Name: l.in.Atom("p" + strconv.Itoa(i))}
		if s, ok := spec(item); ok {
			var err error
			if p.Type, err = l.require(s, "type"); err != nil {
				return nil, err
			}
			if name, ok := s.str("name"); ok {
				p.Name = l.in.Atom(name)
			}
			p.Optional = s.flag("optional")
			p.Rest = s.flag("rest")
		} else {
			id, err := l.lower(item)
			if err != nil {
				return nil, err
			}
			p.Type = id
		}
		out = append(out, p)
	}
	return out, nil
}

func (l *lowerer) signatures(raw any) ([]types.FunctionShape, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: signatures must be an array", ErrInvalidType)
	}
	out := make([]types.FunctionShape, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: signature must be a table", ErrInvalidType)
		}
		fn, err := l.function(table(m))
		if err != nil {
			return nil, err
		}
		out = append(out, fn)
	}
	return out, nil
}

func (l *lowerer) callable(t table) (types.TypeID, error) {
	var (
		shape types.CallableShape
		err   error
	)
	if shape.Calls, err = l.signatures(t["calls"]); err != nil {
		return types.NoTypeID, err
	}
	if shape.Constructs, err = l.signatures(t["constructs"]); err != nil {
		return types.NoTypeID, err
	}
	for i := range shape.Constructs {
		shape.Constructs[i].Constructor = true
	}
	if shape.Props, err = l.properties(t["props"], types.NoDeclID); err != nil {
		return types.NoTypeID, err
	}
	if shape.StringIndex, err = l.index(t["string_index"], types.TypeString); err != nil {
		return types.NoTypeID, err
	}
	if shape.NumberIndex, err = l.index(t["number_index"], types.TypeNumber); err != nil {
		return types.NoTypeID, err
	}
	return l.in.Callable(shape), nil
}

// conditional lowers `check extends extends ? then : else`. Placeholders
// listed under infer, or written inline as {kind = "infer"} inside
// extends, are visible in the then branch only.
func (l *lowerer) conditional(t table) (types.TypeID, error) {
	check, err := l.require(t, "check")
	if err != nil {
		return types.NoTypeID, err
	}
	scope := map[string]types.TypeID{}
	if raw, ok := t["infer"].([]any); ok {
		for _, item := range raw {
			switch v := item.(type) {
			case string:
				scope[v] = l.in.NewInfer(v, types.NoTypeID)
			case map[string]any:
				it := table(v)
				name, _ := it.str("name")
				constraint, err := l.optional(it, "constraint")
				if err != nil {
					return types.NoTypeID, err
				}
				scope[name] = l.in.NewInfer(name, constraint)
			}
		}
	}
	extends, then, err := l.inferScope(t, scope)
	if err != nil {
		return types.NoTypeID, err
	}
	els, err := l.branch(t, "else", "false")
	if err != nil {
		return types.NoTypeID, err
	}
	distributive := l.in.KindOf(check) == types.KindTypeParam
	if v, ok := t["distributive"].(bool); ok {
		distributive = v
	}
	return l.in.Conditional(types.ConditionalType{
		Check:        check,
		Extends:      extends,
		True:         then,
		False:        els,
		Distributive: distributive,
	}), nil
}

func (l *lowerer) inferScope(t table, scope map[string]types.TypeID) (extends, then types.TypeID, err error) {
	l.push(scope)
	defer l.pop()
	if extends, err = l.require(t, "extends"); err != nil {
		return
	}
	then, err = l.branch(t, "then", "true")
	return
}

func (l *lowerer) branch(t table, keys ...string) (types.TypeID, error) {
	for _, key := range keys {
		if raw, ok := t[key]; ok {
			return l.lower(raw)
		}
	}
	return types.NoTypeID, fmt.Errorf("%w: conditional needs %q", ErrInvalidType, keys[0])
}

func modifier(raw any) (types.MappedModifier, error) {
	switch v := raw.(type) {
	case nil:
		return types.ModifierNone, nil
	case bool:
		if v {
			return types.ModifierAdd, nil
		}
		return types.ModifierNone, nil
	case string:
		switch v {
		case "+", "add":
			return types.ModifierAdd, nil
		case "-", "remove":
			return types.ModifierRemove, nil
		}
	}
	return types.ModifierNone, fmt.Errorf("%w: mapped modifier %v", ErrInvalidType, raw)
}

// mapped lowers `{ [param in constraint as as]: template }`.
func (l *lowerer) mapped(t table) (types.TypeID, error) {
	name, _ := t.str("param")
	if name == "" {
		name = "K"
	}
	constraint, err := l.require(t, "in")
	if err != nil {
		return types.NoTypeID, err
	}
	m := types.MappedType{
		Param:      l.in.NewTypeParam(name, constraint, types.NoTypeID),
		Constraint: constraint,
	}
	if m.Readonly, err = modifier(t["readonly"]); err != nil {
		return types.NoTypeID, err
	}
	if m.Optional, err = modifier(t["optional"]); err != nil {
		return types.NoTypeID, err
	}
	l.push(map[string]types.TypeID{name: m.Param})
	defer l.pop()
	if m.NameType, err = l.optional(t, "as"); err != nil {
		return types.NoTypeID, err
	}
	if m.Template, err = l.require(t, "template"); err != nil {
		return types.NoTypeID, err
	}
	return l.in.Mapped(m), nil
}

// template lowers spans: plain strings and {text = ...} are text, {type =
// ...} and kind tables are holes.
func (l *lowerer) template(t table) (types.TypeID, error) {
	items, ok := t["spans"].([]any)
	if !ok {
		return types.NoTypeID, fmt.Errorf("%w: template needs spans", ErrInvalidType)
	}
	parts := make([]any, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			parts = append(parts, v)
			continue
		case map[string]any:
			if text, ok := v["text"].(string); ok {
				parts = append(parts, text)
				continue
			}
			if s, ok := spec(v); ok {
				id, err := l.require(s, "type")
				if err != nil {
					return types.NoTypeID, err
				}
				parts = append(parts, id)
				continue
			}
		}
		id, err := l.lower(item)
		if err != nil {
			return types.NoTypeID, err
		}
		parts = append(parts, id)
	}
	return l.in.TemplateOf(parts...), nil
}

// table is a decoded TOML table.
type table map[string]any

func (t table) kind() string {
	k, _ := t["kind"].(string)
	return k
}

func (t table) str(key string) (string, bool) {
	s, ok := t[key].(string)
	return s, ok
}

func (t table) flag(key string) bool {
	b, _ := t[key].(bool)
	return b
}
