package minic

import (
	"strings"
	"testing"
)

func analyzeScope(t *testing.T, source string) (*ScopeFrame, *ErrorCollector) {
	t.Helper()
	prog := parse(t, source)
	sa := NewScopeAnalyzer(source)
	return sa.Analyze(prog)
}

func TestScopeUndeclaredVariableIsError(t *testing.T) {
	_, errs := analyzeScope(t, `main { print(y); }`)
	if !errs.HasErrors() {
		t.Fatal("expected a scope error for undeclared 'y'")
	}
	if !strings.Contains(errs.Render(), "undeclared variable 'y'") {
		t.Errorf("got %q, want it to mention undeclared variable 'y'", errs.Render())
	}
}

func TestScopeForwardReferenceIsError(t *testing.T) {
	_, errs := analyzeScope(t, `main { print(later); } int later = 5;`)
	if !errs.HasErrors() {
		t.Fatal("expected an invalid-forward-reference error")
	}
	if !strings.Contains(errs.Render(), "invalid forward reference") {
		t.Errorf("got %q, want mention of invalid forward reference", errs.Render())
	}
}

func TestScopeValidDeclarationThenUse(t *testing.T) {
	_, errs := analyzeScope(t, `main { int x = 1; print(x); }`)
	if errs.HasErrors() {
		t.Fatalf("unexpected scope errors: %s", errs.Render())
	}
}

func TestScopeFunctionCallAfterDefinitionIsFine(t *testing.T) {
	_, errs := analyzeScope(t, `int add(int a, int b) { return a + b; } main { print(add(1, 2)); }`)
	if errs.HasErrors() {
		t.Fatalf("unexpected scope errors: %s", errs.Render())
	}
}

func TestScopeCallingNonFunctionIsError(t *testing.T) {
	_, errs := analyzeScope(t, `main { int x = 1; print(x()); }`)
	if !errs.HasErrors() {
		t.Fatal("expected an error calling a non-function")
	}
	if !strings.Contains(errs.Render(), "is not a function") {
		t.Errorf("got %q", errs.Render())
	}
}

func TestScopeRedefinitionOfVariableIsError(t *testing.T) {
	_, errs := analyzeScope(t, `main { int x = 1; int x = 2; }`)
	if !errs.HasErrors() {
		t.Fatal("expected a redefinition error")
	}
	if !strings.Contains(errs.Render(), "redefinition of variable 'x'") {
		t.Errorf("got %q", errs.Render())
	}
}

func TestScopeBlockScopingShadowsOuter(t *testing.T) {
	_, errs := analyzeScope(t, `main { int x = 1; if (x) { int x = 2; print(x); } print(x); }`)
	if errs.HasErrors() {
		t.Fatalf("unexpected scope errors for shadowing in a nested block: %s", errs.Render())
	}
}

func TestScopeEnumVariantsAreInstalledAsSymbols(t *testing.T) {
	global, errs := analyzeScope(t, `enum Color { Red, Green, Blue } main { int c = Green; print(c); }`)
	if errs.HasErrors() {
		t.Fatalf("unexpected scope errors: %s", errs.Render())
	}
	info, ok := global.Symbols["Green"]
	if !ok {
		t.Fatal("expected 'Green' to be installed as a global symbol")
	}
	if !info.IsEnumValue || info.EnumIndex != 1 {
		t.Errorf("got %+v, want IsEnumValue with EnumIndex 1", info)
	}
}

func TestScopeEnumDeclaredInsideFunctionIsError(t *testing.T) {
	_, errs := analyzeScope(t, `main { enum Color { Red, Green } print(Red); }`)
	if !errs.HasErrors() {
		t.Fatal("expected an error for a non-global enum declaration")
	}
}

func TestScopeFunctionPrototypeThenMatchingDefinitionIsFine(t *testing.T) {
	_, errs := analyzeScope(t, `int add(int a, int b); int add(int a, int b) { return a + b; }`)
	if errs.HasErrors() {
		t.Fatalf("unexpected scope errors: %s", errs.Render())
	}
}

func TestScopeConflictingFunctionSignatureIsError(t *testing.T) {
	_, errs := analyzeScope(t, `int add(int a, int b); int add(int a) { return a; }`)
	if !errs.HasErrors() {
		t.Fatal("expected a signature-mismatch error")
	}
	if !strings.Contains(errs.Render(), "signature mismatch") {
		t.Errorf("got %q", errs.Render())
	}
}
