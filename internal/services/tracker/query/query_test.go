package query

import (
	"reflect"
	"testing"
)

func TestWhereEmptyRendersNothing(t *testing.T) {
	t.Parallel()

	clause, args := Where{}.And(Predicate{}).SQL()
	if clause != "" || args != nil {
		t.Fatalf("SQL() = %q, %v; want empty", clause, args)
	}
}

func TestWhereComposesPredicatesInOrder(t *testing.T) {
	t.Parallel()

	where := Where{}.
		And(Eq("c.project_id", "p-1"), IsNull("c.parent_id")).
		And(IsFalse("c.is_deleted"))

	clause, args := where.SQL()
	want := " WHERE c.project_id = ? AND c.parent_id IS NULL AND c.is_deleted = 0"
	if clause != want {
		t.Fatalf("clause = %q, want %q", clause, want)
	}
	if !reflect.DeepEqual(args, []any{"p-1"}) {
		t.Fatalf("args = %v", args)
	}
	if where.Len() != 3 {
		t.Fatalf("len = %d, want 3", where.Len())
	}
}

func TestWhereAndDoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	base := Where{}.And(Eq("a", 1))
	_ = base.And(Eq("b", 2))
	clause, _ := base.SQL()
	if clause != " WHERE a = ?" {
		t.Fatalf("base mutated: %q", clause)
	}
}

func TestFoldPredicatesBindFoldedValues(t *testing.T) {
	t.Parallel()

	search := Or(FoldContains("p.title", "BRIDGE"), FoldContains("p.description", "BRIDGE"))
	status := FoldEq("s.name", "Completed")
	clause, args := Where{}.And(status, search).SQL()

	want := " WHERE casefold(s.name) = ? AND (instr(casefold(p.title), ?) > 0 OR instr(casefold(p.description), ?) > 0)"
	if clause != want {
		t.Fatalf("clause = %q, want %q", clause, want)
	}
	if !reflect.DeepEqual(args, []any{"completed", "bridge", "bridge"}) {
		t.Fatalf("args = %v", args)
	}
}

func TestUserInputOnlyReachesArgs(t *testing.T) {
	t.Parallel()

	hostile := "x' OR 1=1 --"
	clause, args := Where{}.And(FoldContains("p.title", hostile)).SQL()
	if clause != " WHERE instr(casefold(p.title), ?) > 0" {
		t.Fatalf("clause = %q", clause)
	}
	if len(args) != 1 || args[0] != Fold(hostile) {
		t.Fatalf("args = %v", args)
	}
}

func TestOrSkipsZeroAndUnwrapsSingle(t *testing.T) {
	t.Parallel()

	if p := Or(); !p.IsZero() {
		t.Fatalf("Or() = %q, want zero", p.Clause())
	}
	if p := Or(Predicate{}, Eq("a", 1)); p.Clause() != "a = ?" {
		t.Fatalf("Or(single) = %q", p.Clause())
	}
	if p := And(Eq("a", 1), Eq("b", 2)); p.Clause() != "(a = ? AND b = ?)" || len(p.Args()) != 2 {
		t.Fatalf("And = %q %v", p.Clause(), p.Args())
	}
}

func TestOrderSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		order Order
		want  string
	}{
		{"empty", nil, ""},
		{"single", OrderBy("p.title", Asc), " ORDER BY p.title ASC"},
		{"tie break", OrderBy("p.amount", Desc).Then("p.id", Desc), " ORDER BY p.amount DESC, p.id DESC"},
	}
	for _, tc := range tests {
		if got := tc.order.SQL(); got != tc.want {
			t.Fatalf("%s: SQL() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestLimit(t *testing.T) {
	t.Parallel()

	clause, args := Limit(10, -5)
	if clause != " LIMIT ? OFFSET ?" || !reflect.DeepEqual(args, []any{10, 0}) {
		t.Fatalf("Limit = %q %v", clause, args)
	}
}

func TestFold(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Cebu":       "cebu",
		"ÑAGA":       "ñaga",
		"Straße":     "strasse",
		"already ok": "already ok",
	}
	for in, want := range tests {
		if got := Fold(in); got != want {
			t.Fatalf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}
