// Completion: 100% - Two-pass scope analyzer building the shared scope tree
package minic

// SymbolInfo describes one declared name: a variable, a function (or its
// prototype), an enum type, or an enum variant. Enum variants carry
// EnumIndex, their 0-based position in the declaration, which the TAC
// generator resolves at compile time.
type SymbolInfo struct {
	Type        TypeNode
	Name        string
	Line        int
	Column      int
	IsFunction  bool
	IsEnum      bool
	IsEnumValue bool
	IsPrototype bool
	Params      []Param
	EnumIndex   int
}

// ScopeFrame is one node of the scope tree: a symbol table plus an ordered
// list of child frames. The tree is shaped like the source: one global
// frame at level 0, and a child frame for every block-forming construct.
type ScopeFrame struct {
	Symbols  map[string]*SymbolInfo
	Children []*ScopeFrame
	Level    int
	Parent   *ScopeFrame
}

func newScopeFrame(level int, parent *ScopeFrame) *ScopeFrame {
	return &ScopeFrame{Symbols: make(map[string]*SymbolInfo), Level: level, Parent: parent}
}

// ScopeAnalyzer performs the two-pass declaration/resolution walk described
// by the grammar: a flat pre-scan of every global name, followed by a
// source-order walk that builds the scope tree and resolves every
// identifier and call against it.
type ScopeAnalyzer struct {
	errs        *ErrorCollector
	global      *ScopeFrame
	globalDecls map[string]bool
	stack       []*ScopeFrame
}

// NewScopeAnalyzer creates an analyzer that reports diagnostics against source.
func NewScopeAnalyzer(source string) *ScopeAnalyzer {
	return &ScopeAnalyzer{errs: NewErrorCollector(source), globalDecls: make(map[string]bool)}
}

// Analyze runs both passes and returns the completed scope tree together
// with any diagnostics collected along the way.
func (sa *ScopeAnalyzer) Analyze(prog *Program) (*ScopeFrame, *ErrorCollector) {
	sa.global = newScopeFrame(0, nil)
	sa.stack = []*ScopeFrame{sa.global}

	sa.collectGlobalDecls(prog)

	for _, d := range prog.Decls {
		sa.analyzeStmt(d)
	}

	return sa.global, sa.errs
}

// collectGlobalDecls is pass 1: a flat name -> declared lookup used only to
// tell an invalid forward reference (name is declared later at the top
// level) apart from a genuinely undeclared name.
func (sa *ScopeAnalyzer) collectGlobalDecls(prog *Program) {
	for _, d := range prog.Decls {
		switch s := d.(type) {
		case *VarDecl:
			sa.globalDecls[s.Name] = true
		case *FuncDecl:
			sa.globalDecls[s.Name] = true
		case *FuncProto:
			sa.globalDecls[s.Name] = true
		case *EnumDecl:
			sa.globalDecls[s.Name] = true
			for _, v := range s.Values.Values {
				sa.globalDecls[v] = true
			}
		}
	}
}

func (sa *ScopeAnalyzer) currentFrame() *ScopeFrame { return sa.stack[len(sa.stack)-1] }

func (sa *ScopeAnalyzer) enterFrame() *ScopeFrame {
	parent := sa.currentFrame()
	child := newScopeFrame(parent.Level+1, parent)
	parent.Children = append(parent.Children, child)
	sa.stack = append(sa.stack, child)
	return child
}

func (sa *ScopeAnalyzer) exitFrame() {
	sa.stack = sa.stack[:len(sa.stack)-1]
}

func (sa *ScopeAnalyzer) lookupSymbol(name string) (*SymbolInfo, bool) {
	for i := len(sa.stack) - 1; i >= 0; i-- {
		if info, ok := sa.stack[i].Symbols[name]; ok {
			return info, true
		}
	}
	return nil, false
}

// resolveIdent performs identifier/call resolution: a name found as a
// non-function where a function is expected is an undefined-function
// error; a name not yet installed but present in the global declaration
// table is an invalid forward reference; absent entirely it is undeclared.
func (sa *ScopeAnalyzer) resolveIdent(id *Ident, requireFunction bool) {
	line, col := id.Pos()
	if info, ok := sa.lookupSymbol(id.Name); ok {
		if requireFunction && !info.IsFunction {
			sa.errs.Add(StageScope, line, col, "'"+id.Name+"' is not a function")
		}
		return
	}
	if sa.globalDecls[id.Name] {
		sa.errs.Add(StageScope, line, col, "invalid forward reference to '"+id.Name+"'")
		return
	}
	if requireFunction {
		sa.errs.Add(StageScope, line, col, "undefined function '"+id.Name+"'")
	} else {
		sa.errs.Add(StageScope, line, col, "undeclared variable '"+id.Name+"'")
	}
}

// addSymbol installs a symbol into frame, resolving redefinition and
// conflicting-declaration diagnostics against any existing entry of the
// same name in that same frame.
func (sa *ScopeAnalyzer) addSymbol(frame *ScopeFrame, name string, info *SymbolInfo) {
	existing, ok := frame.Symbols[name]
	if !ok {
		frame.Symbols[name] = info
		return
	}

	switch {
	case existing.IsFunction && info.IsFunction:
		switch {
		case existing.IsPrototype && !info.IsPrototype:
			if !existing.Type.Equal(info.Type) || !paramsEqual(existing.Params, info.Params) {
				sa.errs.Add(StageScope, info.Line, info.Column, "conflicting function definition: signature mismatch for '"+name+"'")
				return
			}
			frame.Symbols[name] = info // definition supersedes prototype
		case !existing.IsPrototype && info.IsPrototype:
			sa.errs.Add(StageScope, info.Line, info.Column, "conflicting function definition: prototype follows definition of '"+name+"'")
		default:
			sa.errs.Add(StageScope, info.Line, info.Column, "conflicting function definition: '"+name+"' already declared")
		}
	case existing.IsEnum || info.IsEnum:
		sa.errs.Add(StageScope, info.Line, info.Column, "redefinition of '"+name+"'")
	case existing.IsEnumValue || info.IsEnumValue:
		sa.errs.Add(StageScope, info.Line, info.Column, "redefinition of enum variant '"+name+"'")
	case existing.IsFunction != info.IsFunction:
		sa.errs.Add(StageScope, info.Line, info.Column, "conflicting declaration: '"+name+"' redeclared as a different kind of symbol")
	default:
		sa.errs.Add(StageScope, info.Line, info.Column, "redefinition of variable '"+name+"'")
	}
}

func paramsEqual(a, b []Param) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Type.Equal(b[i].Type) {
			return false
		}
	}
	return true
}

func (sa *ScopeAnalyzer) analyzeVarDecl(v *VarDecl) {
	if v.Initializer != nil {
		sa.analyzeExpr(v.Initializer)
	}
	line, col := v.Pos()
	sa.addSymbol(sa.currentFrame(), v.Name, &SymbolInfo{Type: v.Type, Name: v.Name, Line: line, Column: col})
}

func (sa *ScopeAnalyzer) declareFuncProto(p *FuncProto) {
	line, col := p.Pos()
	sa.addSymbol(sa.currentFrame(), p.Name, &SymbolInfo{
		Type: p.ReturnType, Name: p.Name, Line: line, Column: col,
		IsFunction: true, IsPrototype: true, Params: p.Params,
	})
}

func (sa *ScopeAnalyzer) declareFuncDecl(f *FuncDecl) {
	line, col := f.Pos()
	sa.addSymbol(sa.currentFrame(), f.Name, &SymbolInfo{
		Type: f.ReturnType, Name: f.Name, Line: line, Column: col,
		IsFunction: true, IsPrototype: false, Params: f.Params,
	})

	child := sa.enterFrame()
	for _, prm := range f.Params {
		if _, exists := child.Symbols[prm.Name]; exists {
			sa.errs.Add(StageScope, line, col, "parameter redefinition: '"+prm.Name+"'")
			continue
		}
		child.Symbols[prm.Name] = &SymbolInfo{Type: prm.Type, Name: prm.Name, Line: line, Column: col}
	}
	for _, st := range f.Body {
		sa.analyzeStmt(st)
	}
	sa.exitFrame()
}

func (sa *ScopeAnalyzer) analyzeMainDecl(m *MainDecl) {
	sa.enterFrame()
	for _, st := range m.Body {
		sa.analyzeStmt(st)
	}
	sa.exitFrame()
}

// analyzeEnumDecl enforces that enums are only legal at the global frame;
// every variant is installed as an int-typed symbol at its 0-based index.
func (sa *ScopeAnalyzer) analyzeEnumDecl(e *EnumDecl) {
	frame := sa.currentFrame()
	line, col := e.Pos()
	if frame.Level != 0 {
		sa.errs.Add(StageScope, line, col, "invalid storage class usage: enum '"+e.Name+"' declared outside global scope")
	}
	sa.addSymbol(frame, e.Name, &SymbolInfo{IsEnum: true, Name: e.Name, Type: enumType(e.Name), Line: line, Column: col})
	for i, v := range e.Values.Values {
		sa.addSymbol(frame, v, &SymbolInfo{
			IsEnumValue: true, Name: v, Type: builtinType(BuiltinInt),
			Line: line, Column: col, EnumIndex: i,
		})
	}
}

func (sa *ScopeAnalyzer) analyzeStmt(s Stmt) {
	switch st := s.(type) {
	case *VarDecl:
		sa.analyzeVarDecl(st)
	case *FuncProto:
		sa.declareFuncProto(st)
	case *FuncDecl:
		sa.declareFuncDecl(st)
	case *MainDecl:
		sa.analyzeMainDecl(st)
	case *EnumDecl:
		sa.analyzeEnumDecl(st)
	case *IfStmt:
		sa.analyzeExpr(st.Cond)
		sa.enterFrame()
		for _, s2 := range st.ThenBody {
			sa.analyzeStmt(s2)
		}
		sa.exitFrame()
		if st.ElseBody != nil {
			sa.enterFrame()
			for _, s2 := range st.ElseBody {
				sa.analyzeStmt(s2)
			}
			sa.exitFrame()
		}
	case *WhileStmt:
		sa.analyzeExpr(st.Cond)
		sa.enterFrame()
		for _, s2 := range st.Body {
			sa.analyzeStmt(s2)
		}
		sa.exitFrame()
	case *DoWhileStmt:
		sa.enterFrame()
		for _, s2 := range st.Body {
			sa.analyzeStmt(s2)
		}
		sa.exitFrame()
		sa.analyzeExpr(st.Cond)
	case *ForStmt:
		sa.enterFrame()
		if vd, ok := st.Init.(*VarDecl); ok {
			sa.analyzeVarDecl(vd)
		}
		if st.Cond != nil {
			sa.analyzeExpr(st.Cond)
		}
		if st.Update != nil {
			sa.analyzeExpr(st.Update)
		}
		for _, s2 := range st.Body {
			sa.analyzeStmt(s2)
		}
		sa.exitFrame()
	case *SwitchStmt:
		sa.analyzeExpr(st.Expr)
		for _, c := range st.Cases {
			sa.analyzeExpr(c.Value)
			sa.enterFrame()
			for _, s2 := range c.Body {
				sa.analyzeStmt(s2)
			}
			sa.exitFrame()
		}
		if st.DefaultBody != nil {
			sa.enterFrame()
			for _, s2 := range st.DefaultBody {
				sa.analyzeStmt(s2)
			}
			sa.exitFrame()
		}
	case *ReturnStmt:
		if st.Value != nil {
			sa.analyzeExpr(st.Value)
		}
	case *BreakStmt:
		// legality tracked by the type checker, not scope analysis
	case *PrintStmt:
		for _, a := range st.Args {
			sa.analyzeExpr(a)
		}
	case *BlockStmt:
		sa.enterFrame()
		for _, s2 := range st.Body {
			sa.analyzeStmt(s2)
		}
		sa.exitFrame()
	case *ExprStmt:
		sa.analyzeExpr(st.X)
	case *IncludeStmt:
		// reserved, never resolved further
	}
}

func (sa *ScopeAnalyzer) analyzeExpr(e Expr) {
	switch ex := e.(type) {
	case *Ident:
		sa.resolveIdent(ex, false)
	case *BinaryExpr:
		sa.analyzeExpr(ex.Left)
		sa.analyzeExpr(ex.Right)
	case *UnaryExpr:
		sa.analyzeExpr(ex.Operand)
	case *CallExpr:
		sa.resolveIdent(ex.Callee, true)
		for _, a := range ex.Args {
			sa.analyzeExpr(a)
		}
	}
}
