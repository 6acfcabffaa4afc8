package testkit

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"

	"tsolver/internal/types"
)

// CheckInternerInvariants walks every handle allocated so far and verifies the
// construction-time guarantees of the interner:
// 1) every handle resolves and re-interning its descriptor yields the handle
// 2) union/intersection members are flat, sorted, deduplicated and normalized
// (function members of an intersection trail the rest in source order)
// 3) object properties are sorted by name without duplicates
// 4) every referenced handle exists
func CheckInternerInvariants(in *types.Interner) error {
	if in == nil {
		return fmt.Errorf("nil interner")
	}
	count, err := safecast.Conv[uint32](in.Len())
	if err != nil {
		return fmt.Errorf("interner length overflow: %w", err)
	}
	for raw := uint32(1); raw < count; raw++ {
		id := types.TypeID(raw)
		tt, ok := in.Lookup(id)
		if !ok {
			return fmt.Errorf("handle %d does not resolve", id)
		}
		if tt.Kind == types.KindInvalid || int(tt.Kind) >= types.KindCount {
			return fmt.Errorf("handle %d has invalid kind %v", id, tt.Kind)
		}
		if again := in.Intern(tt); again != id {
			return fmt.Errorf("re-interning %d (%s) yields %d", id, types.Label(in, id), again)
		}
		for _, child := range in.Children(id) {
			if child == types.NoTypeID || uint32(child) >= count {
				return fmt.Errorf("handle %d references unknown handle %d", id, child)
			}
		}
		switch tt.Kind {
		case types.KindUnion:
			if err := checkUnion(in, id); err != nil {
				return err
			}
		case types.KindIntersection:
			if err := checkIntersection(in, id); err != nil {
				return err
			}
		case types.KindObject, types.KindObjectWithIndex:
			shape, _ := in.ObjectShape(id)
			if err := checkProps(in, id, shape.Props); err != nil {
				return err
			}
		case types.KindCallable:
			shape, _ := in.CallableShape(id)
			if err := checkProps(in, id, shape.Props); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkSortedMembers(id types.TypeID, members []types.TypeID) error {
	if len(members) < 2 {
		return fmt.Errorf("composite %d has %d members", id, len(members))
	}
	for i := 1; i < len(members); i++ {
		if members[i-1] >= members[i] {
			return fmt.Errorf("composite %d members not strictly ordered at %d", id, i)
		}
	}
	return nil
}

func checkUnion(in *types.Interner, id types.TypeID) error {
	members := in.Members(id)
	if err := checkSortedMembers(id, members); err != nil {
		return err
	}
	for _, m := range members {
		switch {
		case in.KindOf(m) == types.KindUnion:
			return fmt.Errorf("union %d contains nested union %d", id, m)
		case m == types.TypeNever, m == types.TypeAny, m == types.TypeUnknown, m == types.TypeError:
			return fmt.Errorf("union %d contains absorbing member %s", id, types.Label(in, m))
		}
	}
	if slices.Contains(members, types.TypeTrue) && slices.Contains(members, types.TypeFalse) {
		return fmt.Errorf("union %d keeps both boolean literals", id)
	}
	return nil
}

func checkIntersection(in *types.Interner, id types.TypeID) error {
	members := in.Members(id)
	if len(members) < 2 {
		return fmt.Errorf("composite %d has %d members", id, len(members))
	}
	split := len(members)
	for i, m := range members {
		if isFunction(in, m) {
			split = i
			break
		}
	}
	for i := 1; i < split; i++ {
		if members[i-1] >= members[i] {
			return fmt.Errorf("intersection %d members not strictly ordered at %d", id, i)
		}
	}
	for i, m := range members[split:] {
		if !isFunction(in, m) {
			return fmt.Errorf("intersection %d has non-function member %d after functions", id, m)
		}
		if slices.Contains(members[split:split+i], m) {
			return fmt.Errorf("intersection %d repeats function member %d", id, m)
		}
	}
	for _, m := range members {
		switch {
		case in.KindOf(m) == types.KindIntersection:
			return fmt.Errorf("intersection %d contains nested intersection %d", id, m)
		case m == types.TypeUnknown, m == types.TypeNever, m == types.TypeAny:
			return fmt.Errorf("intersection %d contains absorbing member %s", id, types.Label(in, m))
		}
	}
	return nil
}

func isFunction(in *types.Interner, id types.TypeID) bool {
	switch in.KindOf(id) {
	case types.KindFunction, types.KindCallable:
		return true
	}
	return false
}

func checkProps(in *types.Interner, id types.TypeID, props []types.Property) error {
	for i := 1; i < len(props); i++ {
		prev, cur := in.AtomString(props[i-1].Name), in.AtomString(props[i].Name)
		if strings.Compare(prev, cur) >= 0 {
			return fmt.Errorf("object %d properties out of order: %q before %q", id, prev, cur)
		}
	}
	return nil
}
