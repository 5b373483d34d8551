package coerce

import (
	"errors"
	"strings"
	"testing"
)

func TestUnionDeclarationOrderWins(t *testing.T) {
	runTestCases(t, []testCase{
		{
			name: "first listed first tried",
			run: func(t *testing.T) {
				// both alternatives admit 1 once int casting is on; declared
				// order decides
				spec := NewRecord("X", NewField("v", Union(Int(), String())))
				cfg := MustConfig(WithCast(CastInt, CastString))
				rec, err := Convert(spec, map[string]any{"v": 1}, cfg)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got := mustGet(t, rec, "v"); got != 1 {
					t.Fatalf("expected int branch, got %v (%T)", got, got)
				}
			},
		},
		{
			name: "swapped order selects the other branch",
			run: func(t *testing.T) {
				spec := NewRecord("X", NewField("v", Union(String(), Int())))
				cfg := MustConfig(WithCast(CastInt, CastString))
				rec, err := Convert(spec, map[string]any{"v": 1}, cfg)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got := mustGet(t, rec, "v"); got != "1" {
					t.Fatalf("expected string branch, got %v (%T)", got, got)
				}
			},
		},
	})
}

func TestUnionNoAlternativeMatches(t *testing.T) {
	spec := NewRecord("X", NewField("v", Union(Int(), Bool())))

	_, err := Convert(spec, map[string]any{"v": "nope"}, nil)
	if !errors.Is(err, ErrWrongType) {
		t.Fatalf("expected ErrWrongType, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "int | bool") {
		t.Fatalf("expected all alternatives named, got %q", msg)
	}
}

func TestUnionNilShortCircuit(t *testing.T) {
	spec := NewRecord("X", NewField("v", Union(String(), Optional(Int()))))

	rec, err := Convert(spec, map[string]any{"v": nil}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustGet(t, rec, "v"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestUnionRecordAlternatives(t *testing.T) {
	dog := NewRecord("Dog", NewField("bark", String()))
	cat := NewRecord("Cat", NewField("meow", String()))
	spec := NewRecord("X", NewField("pet", Union(RecordOf(dog), RecordOf(cat))))

	rec, err := Convert(spec, map[string]any{"pet": map[string]any{"meow": "hi"}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pet := mustGet(t, rec, "pet").(*Record)
	if pet.Spec() != cat {
		t.Fatalf("expected Cat branch, got %s", pet.Spec().Name)
	}
}

func TestUnionHookFailureIsFatal(t *testing.T) {
	boom := errors.New("boom")
	spec := NewRecord("X", NewField("v", Union(Int(), String())))
	cfg := MustConfig(WithScalarHook(ScalarInt, func(any) (any, error) {
		return nil, boom
	}))

	_, err := Convert(spec, map[string]any{"v": "fine"}, cfg)
	if !errors.Is(err, boom) {
		t.Fatalf("expected the hook error to surface as-is, got %v", err)
	}
}

func TestUnionUnresolvedReferenceIsFatal(t *testing.T) {
	spec := NewRecord("X", NewField("v", Union(Ref("Missing"), String())))

	_, err := Convert(spec, map[string]any{"v": "fine"}, nil)
	if !errors.Is(err, ErrForwardReference) {
		t.Fatalf("expected ErrForwardReference, got %v", err)
	}
}

func TestOptionalScalar(t *testing.T) {
	spec := NewRecord("X", NewField("s", Optional(String())))

	runTestCases(t, []testCase{
		{
			name: "nil accepted",
			run: func(t *testing.T) {
				rec, err := Convert(spec, map[string]any{"s": nil}, nil)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got := mustGet(t, rec, "s"); got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
			},
		},
		{
			name: "inner value accepted",
			run: func(t *testing.T) {
				rec, err := Convert(spec, map[string]any{"s": "x"}, nil)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got := mustGet(t, rec, "s"); got != "x" {
					t.Fatalf("expected x, got %v", got)
				}
			},
		},
		{
			name: "inner mismatch still fails",
			run: func(t *testing.T) {
				_, err := Convert(spec, map[string]any{"s": 3}, nil)
				if !errors.Is(err, ErrWrongType) {
					t.Fatalf("expected ErrWrongType, got %v", err)
				}
			},
		},
		{
			name: "absent key is not nil",
			run: func(t *testing.T) {
				_, err := Convert(spec, map[string]any{}, nil)
				if !errors.Is(err, ErrMissingField) {
					t.Fatalf("expected ErrMissingField, got %v", err)
				}
			},
		},
	})
}
