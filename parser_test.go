package minic

import "testing"

func parse(t *testing.T, source string) *Program {
	t.Helper()
	lexer := NewLexer(source)
	tokens := lexer.Tokenize()
	parser := NewParser(tokens)
	prog, err := parser.ParseProgram()
	if err != nil {
		t.Fatalf("unexpected parse error for %q: %s (at %d:%d)", source, err.Message, err.Token.Line, err.Token.Column)
	}
	return prog
}

func TestParserVarDecl(t *testing.T) {
	prog := parse(t, "int x = 5;")
	if len(prog.Decls) != 1 {
		t.Fatalf("got %d decls, want 1", len(prog.Decls))
	}
	decl, ok := prog.Decls[0].(*VarDecl)
	if !ok {
		t.Fatalf("got %T, want *VarDecl", prog.Decls[0])
	}
	if decl.Name != "x" || decl.Type.Builtin != BuiltinInt {
		t.Errorf("got name %q type %v, want x/int", decl.Name, decl.Type)
	}
	if lit, ok := decl.Initializer.(*IntLit); !ok || lit.Value != 5 {
		t.Errorf("got initializer %+v, want IntLit(5)", decl.Initializer)
	}
}

func TestParserConstAndGlobalModifiers(t *testing.T) {
	prog := parse(t, "const int N = 10; global int counter = 0;")
	first := prog.Decls[0].(*VarDecl)
	if !first.IsConst {
		t.Error("expected IsConst true")
	}
	second := prog.Decls[1].(*VarDecl)
	if !second.IsGlobal {
		t.Error("expected IsGlobal true")
	}
}

func TestParserFunctionDeclAndPrototype(t *testing.T) {
	prog := parse(t, "int add(int a, int b); int add(int a, int b) { return a + b; }")
	proto, ok := prog.Decls[0].(*FuncProto)
	if !ok {
		t.Fatalf("got %T, want *FuncProto", prog.Decls[0])
	}
	if proto.Name != "add" || len(proto.Params) != 2 {
		t.Errorf("got %+v", proto)
	}
	fn, ok := prog.Decls[1].(*FuncDecl)
	if !ok {
		t.Fatalf("got %T, want *FuncDecl", prog.Decls[1])
	}
	if len(fn.Body) != 1 {
		t.Errorf("got %d body stmts, want 1", len(fn.Body))
	}
}

func TestParserMainBlock(t *testing.T) {
	prog := parse(t, `main { print("hi"); }`)
	main, ok := prog.Decls[0].(*MainDecl)
	if !ok {
		t.Fatalf("got %T, want *MainDecl", prog.Decls[0])
	}
	if len(main.Body) != 1 {
		t.Fatalf("got %d stmts, want 1", len(main.Body))
	}
	if _, ok := main.Body[0].(*PrintStmt); !ok {
		t.Errorf("got %T, want *PrintStmt", main.Body[0])
	}
}

func TestParserIfElseIfElse(t *testing.T) {
	prog := parse(t, `main { if (1) { print(1); } else if (2) { print(2); } else { print(3); } }`)
	main := prog.Decls[0].(*MainDecl)
	ifStmt := main.Body[0].(*IfStmt)
	if len(ifStmt.ElseBody) != 1 {
		t.Fatalf("got %d else stmts, want 1 (nested else-if)", len(ifStmt.ElseBody))
	}
	if _, ok := ifStmt.ElseBody[0].(*IfStmt); !ok {
		t.Errorf("got %T, want nested *IfStmt for else-if", ifStmt.ElseBody[0])
	}
}

func TestParserForLoop(t *testing.T) {
	prog := parse(t, `main { for (int i = 0; i < 10; i++) { print(i); } }`)
	main := prog.Decls[0].(*MainDecl)
	forStmt := main.Body[0].(*ForStmt)
	if forStmt.Init == nil || forStmt.Cond == nil || forStmt.Update == nil {
		t.Fatalf("got %+v, want all three for-clauses populated", forStmt)
	}
}

func TestParserSwitchCasesAndDefault(t *testing.T) {
	prog := parse(t, `main { switch (x) { case 1: print(1); break; default: print(0); } }`)
	main := prog.Decls[0].(*MainDecl)
	sw := main.Body[0].(*SwitchStmt)
	if len(sw.Cases) != 1 {
		t.Fatalf("got %d cases, want 1", len(sw.Cases))
	}
	if len(sw.DefaultBody) != 1 {
		t.Fatalf("got %d default stmts, want 1", len(sw.DefaultBody))
	}
}

func TestParserEnumDecl(t *testing.T) {
	prog := parse(t, `enum Color { Red, Green, Blue }`)
	enum := prog.Decls[0].(*EnumDecl)
	if enum.Name != "Color" || len(enum.Values.Values) != 3 {
		t.Fatalf("got %+v", enum)
	}
}

func TestParserOperatorPrecedence(t *testing.T) {
	prog := parse(t, `main { int x = 1 + 2 * 3; }`)
	main := prog.Decls[0].(*MainDecl)
	decl := main.Body[0].(*VarDecl)
	bin := decl.Initializer.(*BinaryExpr)
	if bin.Op != TokPlus {
		t.Fatalf("got top-level op %v, want TokPlus (lowest precedence binds loosest)", bin.Op)
	}
	rhs, ok := bin.Right.(*BinaryExpr)
	if !ok || rhs.Op != TokStar {
		t.Errorf("got right side %+v, want a TokStar multiplication", bin.Right)
	}
}

func TestParserAssignmentIsRightAssociative(t *testing.T) {
	prog := parse(t, `main { x = y = 5; }`)
	main := prog.Decls[0].(*MainDecl)
	exprStmt := main.Body[0].(*ExprStmt)
	outer := exprStmt.X.(*BinaryExpr)
	if outer.Op != TokAssign {
		t.Fatalf("got %v, want TokAssign", outer.Op)
	}
	if _, ok := outer.Right.(*BinaryExpr); !ok {
		t.Errorf("got right side %T, want nested assignment", outer.Right)
	}
}

func TestParserCallExpression(t *testing.T) {
	prog := parse(t, `main { print(add(1, 2)); }`)
	main := prog.Decls[0].(*MainDecl)
	printStmt := main.Body[0].(*PrintStmt)
	call, ok := printStmt.Args[0].(*CallExpr)
	if !ok {
		t.Fatalf("got %T, want *CallExpr", printStmt.Args[0])
	}
	if call.Callee.Name != "add" || len(call.Args) != 2 {
		t.Errorf("got %+v", call)
	}
}

func TestParserMissingSemicolonIsError(t *testing.T) {
	lexer := NewLexer(`main { int x = 5 }`)
	tokens := lexer.Tokenize()
	parser := NewParser(tokens)
	_, err := parser.ParseProgram()
	if err == nil {
		t.Fatal("expected a parse error for missing semicolon")
	}
}

func TestParserInvalidAssignmentTargetIsError(t *testing.T) {
	lexer := NewLexer(`main { 5 = x; }`)
	tokens := lexer.Tokenize()
	parser := NewParser(tokens)
	_, err := parser.ParseProgram()
	if err == nil {
		t.Fatal("expected a parse error for assigning to a non-identifier")
	}
}
