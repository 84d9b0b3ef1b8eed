package minic

import (
	"strings"
	"testing"
)

func genTAC(t *testing.T, source string) []Instruction {
	t.Helper()
	prog := parse(t, source)
	sa := NewScopeAnalyzer(source)
	global, scopeErrs := sa.Analyze(prog)
	if scopeErrs.HasErrors() {
		t.Fatalf("unexpected scope errors: %s", scopeErrs.Render())
	}
	tc := NewTypeChecker(source, global)
	typeErrs := tc.Check(prog)
	if typeErrs.HasErrors() {
		t.Fatalf("unexpected type errors: %s", typeErrs.Render())
	}
	gen := NewTACGenerator()
	return gen.Generate(prog)
}

func renderTAC(instrs []Instruction) string {
	var sb strings.Builder
	for _, i := range instrs {
		sb.WriteString(i.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

func TestTACVarDeclWithInitializer(t *testing.T) {
	instrs := genTAC(t, `main { int x = 5; }`)
	text := renderTAC(instrs)
	if !strings.Contains(text, "int x = 5") {
		t.Errorf("got:\n%s\nwant a declare of x initialized to 5", text)
	}
}

func TestTACBinaryExpressionUsesTemp(t *testing.T) {
	instrs := genTAC(t, `main { int x = 1 + 2; }`)
	found := false
	for _, ins := range instrs {
		if b, ok := ins.(*BinaryInstr); ok && b.Op == TokPlus {
			found = true
			if _, ok := b.Dest.(*TempOperand); !ok {
				t.Errorf("binary result destination is %T, want *TempOperand", b.Dest)
			}
		}
	}
	if !found {
		t.Fatalf("no BinaryInstr found in:\n%s", renderTAC(instrs))
	}
}

func TestTACEnumVariantsLowerToIntLiterals(t *testing.T) {
	instrs := genTAC(t, `enum Color { Red, Green, Blue } main { Color c = Green; }`)
	for _, ins := range instrs {
		if d, ok := ins.(*DeclareInstr); ok && d.Name == "c" {
			lit, ok := d.Init.(*IntOperand)
			if !ok || lit.Value != 1 {
				t.Errorf("got init %+v, want IntOperand(1) for Green (index 1)", d.Init)
			}
			return
		}
	}
	t.Fatalf("declare of 'c' not found in:\n%s", renderTAC(instrs))
}

func TestTACIfWithoutElseSkipsOverThenBody(t *testing.T) {
	instrs := genTAC(t, `main { if (true) { print(1); } }`)
	foundIfFalse := false
	for _, ins := range instrs {
		if _, ok := ins.(*IfFalseInstr); ok {
			foundIfFalse = true
		}
	}
	if !foundIfFalse {
		t.Fatalf("expected an IfFalseInstr guarding the then-body in:\n%s", renderTAC(instrs))
	}
}

func TestTACWhileLoopStructure(t *testing.T) {
	instrs := genTAC(t, `main { int x = 0; while (x < 3) { x = x + 1; } }`)
	var labels, gotos int
	for _, ins := range instrs {
		switch ins.(type) {
		case *LabelInstr:
			labels++
		case *GotoInstr:
			gotos++
		}
	}
	if labels < 2 || gotos < 1 {
		t.Errorf("got %d labels, %d gotos; want at least 2 labels (start/end) and 1 goto (loop back) in:\n%s", labels, gotos, renderTAC(instrs))
	}
}

func TestTACSwitchFallsThroughIntoSubsequentCaseBodies(t *testing.T) {
	instrs := genTAC(t, `enum Color { Red, Green, Blue } main { Color c = Green; switch(c) { case Red: print(0); case Green: print(1); case Blue: print(2); } }`)
	out, err := NewExecutionEngine(instrs).Execute()
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "1 2" {
		t.Errorf("got output %q, want \"1 2\" (fall-through from Green into Blue)", out)
	}
}

func TestTACSwitchBreakStopsFallThrough(t *testing.T) {
	instrs := genTAC(t, `enum Color { Red, Green, Blue } main { Color c = Green; switch(c) { case Red: print(0); break; case Green: print(1); break; case Blue: print(2); break; } }`)
	out, err := NewExecutionEngine(instrs).Execute()
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "1" {
		t.Errorf("got output %q, want \"1\" (break stops fall-through)", out)
	}
}

func TestTACFunctionLoweringEmitsStartAndEnd(t *testing.T) {
	instrs := genTAC(t, `int add(int a, int b) { return a + b; }`)
	var start *FuncStartInstr
	var sawEnd bool
	for _, ins := range instrs {
		if f, ok := ins.(*FuncStartInstr); ok {
			start = f
		}
		if _, ok := ins.(*FuncEndInstr); ok {
			sawEnd = true
		}
	}
	if start == nil || start.Name != "add" || len(start.Params) != 2 {
		t.Fatalf("got %+v, want a FuncStartInstr named 'add' with 2 params", start)
	}
	if !sawEnd {
		t.Error("expected a FuncEndInstr closing the function body")
	}
}

func TestTACPostfixIncrementReturnsOldValue(t *testing.T) {
	instrs := genTAC(t, `main { int x = 5; int y = x++; print(y); print(x); }`)
	out, err := NewExecutionEngine(instrs).Execute()
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	if strings.TrimSpace(out) != "5 6" {
		t.Errorf("got %q, want \"5 6\" (postfix yields old value, variable still increments)", out)
	}
}
