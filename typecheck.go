// Completion: 100% - Per-construct type checking over the synchronized scope cursor
package minic

// TypeChecker walks the AST using a scope cursor kept in lock-step with the
// ScopeAnalyzer's frame order: entering a scope pushes the current sibling
// counter and starts a fresh one; exiting pops it and advances the parent's
// counter. Symbol lookup replays the cursor's path from the global frame
// outward, exactly mirroring how the scope analyzer built the tree.
type TypeChecker struct {
	global    *ScopeFrame
	errs      *ErrorCollector
	scopePath []int
	childIdx  []int

	curFnReturn TypeNode
	inFunction  bool
	foundReturn bool
	loopDepth   int
	switchDepth int
}

// NewTypeChecker creates a checker bound to the scope tree produced by
// ScopeAnalyzer.Analyze and a source string for diagnostic rendering.
func NewTypeChecker(source string, global *ScopeFrame) *TypeChecker {
	return &TypeChecker{
		errs:     NewErrorCollector(source),
		global:   global,
		childIdx: []int{0},
	}
}

// Check walks every top-level declaration and returns the accumulated diagnostics.
func (tc *TypeChecker) Check(prog *Program) *ErrorCollector {
	for _, d := range prog.Decls {
		tc.checkStmt(d)
	}
	return tc.errs
}

func (tc *TypeChecker) enterScope() {
	idx := tc.childIdx[len(tc.childIdx)-1]
	tc.scopePath = append(tc.scopePath, idx)
	tc.childIdx = append(tc.childIdx, 0)
}

func (tc *TypeChecker) exitScope() {
	tc.scopePath = tc.scopePath[:len(tc.scopePath)-1]
	tc.childIdx = tc.childIdx[:len(tc.childIdx)-1]
	tc.childIdx[len(tc.childIdx)-1]++
}

func (tc *TypeChecker) lookupSymbol(name string) (*SymbolInfo, bool) {
	path := append([]int(nil), tc.scopePath...)
	for {
		frame := tc.global
		ok := true
		for _, idx := range path {
			if idx < 0 || idx >= len(frame.Children) {
				ok = false
				break
			}
			frame = frame.Children[idx]
		}
		if ok {
			if sym, found := frame.Symbols[name]; found {
				return sym, true
			}
		}
		if len(path) == 0 {
			return nil, false
		}
		path = path[:len(path)-1]
	}
}

func (tc *TypeChecker) addError(line, col int, msg string) {
	tc.errs.Add(StageType, line, col, msg)
}

// infer computes an expression's static type per the inference rules:
// literals yield their builtin kind, comparisons/logical ops yield bool,
// other binary ops yield the left operand's type, unary ! yields bool and
// other unaries yield the operand's type, and a call yields the callee's
// declared return type.
func (tc *TypeChecker) infer(e Expr) TypeNode {
	switch ex := e.(type) {
	case *IntLit:
		return builtinType(BuiltinInt)
	case *FloatLit:
		return builtinType(BuiltinFloat)
	case *StringLit:
		return builtinType(BuiltinString)
	case *CharLit:
		return builtinType(BuiltinChar)
	case *BoolLit:
		return builtinType(BuiltinBool)
	case *Ident:
		if sym, ok := tc.lookupSymbol(ex.Name); ok {
			return sym.Type
		}
		return errorType()
	case *BinaryExpr:
		switch ex.Op {
		case TokEq, TokNe, TokGt, TokLt, TokGe, TokLe, TokAndAnd, TokOrOr:
			return builtinType(BuiltinBool)
		default:
			return tc.infer(ex.Left)
		}
	case *UnaryExpr:
		if ex.Op == TokBang {
			return builtinType(BuiltinBool)
		}
		return tc.infer(ex.Operand)
	case *CallExpr:
		if sym, ok := tc.lookupSymbol(ex.Callee.Name); ok {
			return sym.Type
		}
		return errorType()
	default:
		return errorType()
	}
}

func (tc *TypeChecker) checkStmt(s Stmt) {
	switch st := s.(type) {
	case *VarDecl:
		line, col := st.Pos()
		if st.Type.Equal(builtinType(BuiltinVoid)) {
			tc.addError(line, col, "variable '"+st.Name+"' cannot be void")
		}
		if st.Initializer != nil {
			tc.checkExpr(st.Initializer)
			if !st.Type.CompatibleWith(tc.infer(st.Initializer)) {
				tc.addError(line, col, "type mismatch in declaration of '"+st.Name+"'")
			}
		}
	case *FuncProto:
		// no body to check
	case *FuncDecl:
		prevRet, prevIn, prevFound := tc.curFnReturn, tc.inFunction, tc.foundReturn
		tc.curFnReturn, tc.inFunction, tc.foundReturn = st.ReturnType, true, false

		tc.enterScope()
		for _, s2 := range st.Body {
			tc.checkStmt(s2)
		}
		line, col := st.Pos()
		if !st.ReturnType.Equal(builtinType(BuiltinVoid)) && !tc.foundReturn {
			tc.addError(line, col, "function '"+st.Name+"' requires a return statement")
		}
		tc.exitScope()

		tc.curFnReturn, tc.inFunction, tc.foundReturn = prevRet, prevIn, prevFound
	case *MainDecl:
		tc.enterScope()
		for _, s2 := range st.Body {
			tc.checkStmt(s2)
		}
		tc.exitScope()
	case *IfStmt:
		tc.checkExpr(st.Cond)
		line, col := st.Pos()
		if !tc.infer(st.Cond).Equal(builtinType(BuiltinBool)) {
			tc.addError(line, col, "if condition must be boolean")
		}
		tc.enterScope()
		for _, s2 := range st.ThenBody {
			tc.checkStmt(s2)
		}
		tc.exitScope()
		if st.ElseBody != nil {
			tc.enterScope()
			for _, s2 := range st.ElseBody {
				tc.checkStmt(s2)
			}
			tc.exitScope()
		}
	case *WhileStmt:
		tc.checkExpr(st.Cond)
		line, col := st.Pos()
		if !tc.infer(st.Cond).Equal(builtinType(BuiltinBool)) {
			tc.addError(line, col, "while condition must be boolean")
		}
		tc.loopDepth++
		tc.enterScope()
		for _, s2 := range st.Body {
			tc.checkStmt(s2)
		}
		tc.exitScope()
		tc.loopDepth--
	case *DoWhileStmt:
		tc.loopDepth++
		tc.enterScope()
		for _, s2 := range st.Body {
			tc.checkStmt(s2)
		}
		tc.exitScope()
		tc.loopDepth--
		tc.checkExpr(st.Cond)
		line, col := st.Pos()
		if !tc.infer(st.Cond).Equal(builtinType(BuiltinBool)) {
			tc.addError(line, col, "do-while condition must be boolean")
		}
	case *ForStmt:
		tc.enterScope()
		if vd, ok := st.Init.(*VarDecl); ok {
			tc.checkStmt(vd)
		}
		if st.Cond != nil {
			tc.checkExpr(st.Cond)
			line, col := st.Pos()
			if !tc.infer(st.Cond).Equal(builtinType(BuiltinBool)) {
				tc.addError(line, col, "for condition must be boolean")
			}
		}
		if st.Update != nil {
			tc.checkExpr(st.Update)
		}
		tc.loopDepth++
		for _, s2 := range st.Body {
			tc.checkStmt(s2)
		}
		tc.loopDepth--
		tc.exitScope()
	case *SwitchStmt:
		tc.checkExpr(st.Expr)
		et := tc.infer(st.Expr)
		line, col := st.Pos()
		if !et.Equal(builtinType(BuiltinInt)) && !et.Equal(builtinType(BuiltinChar)) && !et.IsEnum {
			tc.addError(line, col, "switch expression must be int, char, or user-defined")
		}
		tc.switchDepth++
		for _, c := range st.Cases {
			ct := tc.infer(c.Value)
			if !et.CompatibleWith(ct) {
				cl, cc := c.Pos()
				tc.addError(cl, cc, "case value type incompatible with switch expression")
			}
			tc.enterScope()
			for _, s2 := range c.Body {
				tc.checkStmt(s2)
			}
			tc.exitScope()
		}
		if st.DefaultBody != nil {
			tc.enterScope()
			for _, s2 := range st.DefaultBody {
				tc.checkStmt(s2)
			}
			tc.exitScope()
		}
		tc.switchDepth--
	case *ReturnStmt:
		tc.foundReturn = true
		expected := builtinType(BuiltinVoid)
		if tc.inFunction {
			expected = tc.curFnReturn
		}
		line, col := st.Pos()
		if st.Value != nil {
			tc.checkExpr(st.Value)
			if expected.Equal(builtinType(BuiltinVoid)) {
				tc.addError(line, col, "void function cannot return a value")
			} else if !expected.CompatibleWith(tc.infer(st.Value)) {
				tc.addError(line, col, "incorrect return type")
			}
		} else if !expected.Equal(builtinType(BuiltinVoid)) {
			tc.addError(line, col, "function requires a return value")
		}
	case *BreakStmt:
		if tc.loopDepth == 0 && tc.switchDepth == 0 {
			line, col := st.Pos()
			tc.addError(line, col, "break outside of loop or switch")
		}
	case *PrintStmt:
		for _, a := range st.Args {
			tc.checkExpr(a)
		}
	case *BlockStmt:
		tc.enterScope()
		for _, s2 := range st.Body {
			tc.checkStmt(s2)
		}
		tc.exitScope()
	case *ExprStmt:
		tc.checkExpr(st.X)
	case *IncludeStmt, *EnumDecl:
		// nothing further to check
	}
}

func (tc *TypeChecker) checkExpr(e Expr) {
	switch ex := e.(type) {
	case *BinaryExpr:
		tc.checkExpr(ex.Left)
		tc.checkExpr(ex.Right)
		lt, rt := tc.infer(ex.Left), tc.infer(ex.Right)
		line, col := ex.Pos()
		switch ex.Op {
		case TokAndAnd, TokOrOr:
			if !lt.Equal(builtinType(BuiltinBool)) || !rt.Equal(builtinType(BuiltinBool)) {
				tc.addError(line, col, "logical operator requires boolean operands")
			}
		case TokAmp, TokPipe, TokCaret:
			if !lt.Equal(builtinType(BuiltinInt)) || !rt.Equal(builtinType(BuiltinInt)) {
				tc.addError(line, col, "bitwise operator requires int operands")
			}
		case TokShl, TokShr:
			if !lt.Equal(builtinType(BuiltinInt)) || !rt.Equal(builtinType(BuiltinInt)) {
				tc.addError(line, col, "shift operator requires int operands")
			}
		case TokPlus, TokMinus, TokStar, TokSlash, TokPercent:
			if !lt.Numeric() || !rt.Numeric() {
				tc.addError(line, col, "arithmetic operator requires numeric operands")
			} else if !lt.Equal(rt) {
				tc.addError(line, col, "arithmetic operands must match exactly")
			}
		case TokEq, TokNe, TokGt, TokLt, TokGe, TokLe:
			if !lt.CompatibleWith(rt) {
				tc.addError(line, col, "comparison operands are not compatible")
			}
		case TokAssign:
			if !lt.CompatibleWith(rt) {
				tc.addError(line, col, "assignment operands are not compatible")
			}
		}
	case *UnaryExpr:
		tc.checkExpr(ex.Operand)
		t := tc.infer(ex.Operand)
		line, col := ex.Pos()
		switch ex.Op {
		case TokIncrement, TokDecrement:
			if !t.Equal(builtinType(BuiltinInt)) {
				tc.addError(line, col, "increment/decrement requires an int operand")
			}
		case TokBang:
			if !t.Equal(builtinType(BuiltinBool)) {
				tc.addError(line, col, "'!' requires a boolean operand")
			}
		case TokMinus:
			if !t.Numeric() {
				tc.addError(line, col, "unary '-' requires a numeric operand")
			}
		}
	case *CallExpr:
		sym, ok := tc.lookupSymbol(ex.Callee.Name)
		if !ok {
			return
		}
		line, col := ex.Pos()
		if len(ex.Args) != len(sym.Params) {
			tc.addError(line, col, "argument count mismatch calling '"+ex.Callee.Name+"'")
			for _, a := range ex.Args {
				tc.checkExpr(a)
			}
			return
		}
		for i, a := range ex.Args {
			tc.checkExpr(a)
			if !tc.infer(a).CompatibleWith(sym.Params[i].Type) {
				tc.addError(line, col, "argument type mismatch calling '"+ex.Callee.Name+"'")
			}
		}
	}
}
