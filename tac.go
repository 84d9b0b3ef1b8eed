// Completion: 100% - TAC operand/instruction model and the lowering generator
package minic

import (
	"strconv"
	"strings"
)

// Operand is one operand of a TAC instruction: a compiler temporary, a
// named variable, a literal value, or a label reference.
type Operand interface {
	operandNode()
	String() string
}

type TempOperand struct{ Index int }
type VarOperand struct{ Name string }
type IntOperand struct{ Value int64 }
type FloatOperand struct{ Value float64 }
type BoolOperand struct{ Value bool }
type CharOperand struct{ Value byte }
type StringOperand struct{ Value string }
type LabelOperand struct{ Name string }

func (*TempOperand) operandNode()   {}
func (*VarOperand) operandNode()    {}
func (*IntOperand) operandNode()    {}
func (*FloatOperand) operandNode()  {}
func (*BoolOperand) operandNode()   {}
func (*CharOperand) operandNode()   {}
func (*StringOperand) operandNode() {}
func (*LabelOperand) operandNode()  {}

func (o *TempOperand) String() string  { return "t" + strconv.Itoa(o.Index) }
func (o *VarOperand) String() string   { return o.Name }
func (o *IntOperand) String() string   { return strconv.FormatInt(o.Value, 10) }
func (o *FloatOperand) String() string { return strconv.FormatFloat(o.Value, 'g', -1, 64) }
func (o *BoolOperand) String() string  { return strconv.FormatBool(o.Value) }
func (o *CharOperand) String() string  { return "'" + string(o.Value) + "'" }
func (o *StringOperand) String() string { return "\"" + o.Value + "\"" }
func (o *LabelOperand) String() string { return o.Name }

// isLiteral reports whether an operand is a literal constant rather than a
// reference to a variable, temp, or label.
func isLiteral(o Operand) bool {
	switch o.(type) {
	case *IntOperand, *FloatOperand, *BoolOperand, *CharOperand, *StringOperand:
		return true
	default:
		return false
	}
}

// Instruction is one three-address-code instruction.
type Instruction interface {
	instructionNode()
	String() string
}

type ParamSig struct {
	Type string
	Name string
}

type DeclareInstr struct {
	Type string
	Name string
	Init Operand // nil when there is no initializer
}

type AssignInstr struct{ Dest, Src Operand }

type BinaryInstr struct {
	Dest        Operand
	Op          TokenKind
	Left, Right Operand
}

type UnaryInstr struct {
	Dest Operand
	Op   TokenKind
	Src  Operand
}

type LabelInstr struct{ Name string }
type GotoInstr struct{ Target string }

type IfTrueInstr struct {
	Cond   Operand
	Target string
}

type IfFalseInstr struct {
	Cond   Operand
	Target string
}

type ParamInstr struct{ Value Operand }

type CallInstr struct {
	Dest     Operand // nil when the result is discarded
	Func     string
	ArgCount int
}

type ReturnInstr struct{ Value Operand } // nil for bare `return`

type FuncStartInstr struct {
	Name       string
	ReturnType string
	Params     []ParamSig
}

type FuncEndInstr struct{}

type PrintInstr struct{ Args []Operand }

type CommentInstr struct{ Text string }

func (*DeclareInstr) instructionNode()   {}
func (*AssignInstr) instructionNode()    {}
func (*BinaryInstr) instructionNode()    {}
func (*UnaryInstr) instructionNode()     {}
func (*LabelInstr) instructionNode()     {}
func (*GotoInstr) instructionNode()      {}
func (*IfTrueInstr) instructionNode()    {}
func (*IfFalseInstr) instructionNode()   {}
func (*ParamInstr) instructionNode()     {}
func (*CallInstr) instructionNode()      {}
func (*ReturnInstr) instructionNode()    {}
func (*FuncStartInstr) instructionNode() {}
func (*FuncEndInstr) instructionNode()   {}
func (*PrintInstr) instructionNode()     {}
func (*CommentInstr) instructionNode()   {}

func (i *DeclareInstr) String() string {
	if i.Init != nil {
		return i.Type + " " + i.Name + " = " + i.Init.String()
	}
	return i.Type + " " + i.Name
}

func (i *AssignInstr) String() string { return i.Dest.String() + " = " + i.Src.String() }

func (i *BinaryInstr) String() string {
	return i.Dest.String() + " = " + i.Left.String() + " " + i.Op.String() + " " + i.Right.String()
}

func (i *UnaryInstr) String() string {
	return i.Dest.String() + " = " + i.Op.String() + " " + i.Src.String()
}

func (i *LabelInstr) String() string { return i.Name + ":" }
func (i *GotoInstr) String() string  { return "goto " + i.Target }

func (i *IfTrueInstr) String() string  { return "ifTrue " + i.Cond.String() + " goto " + i.Target }
func (i *IfFalseInstr) String() string { return "ifFalse " + i.Cond.String() + " goto " + i.Target }

func (i *ParamInstr) String() string { return "param " + i.Value.String() }

func (i *CallInstr) String() string {
	if i.Dest != nil {
		return i.Dest.String() + " = call " + i.Func + ", " + strconv.Itoa(i.ArgCount)
	}
	return "call " + i.Func + ", " + strconv.Itoa(i.ArgCount)
}

func (i *ReturnInstr) String() string {
	if i.Value != nil {
		return "return " + i.Value.String()
	}
	return "return"
}

func (i *FuncStartInstr) String() string {
	parts := make([]string, len(i.Params))
	for idx, p := range i.Params {
		parts[idx] = p.Type + " " + p.Name
	}
	return "\n" + i.ReturnType + " " + i.Name + "(" + strings.Join(parts, ", ") + ") begin:"
}

func (i *FuncEndInstr) String() string { return "end\n" }

func (i *PrintInstr) String() string {
	parts := make([]string, len(i.Args))
	for idx, a := range i.Args {
		parts[idx] = a.String()
	}
	return "print " + strings.Join(parts, ", ")
}

func (i *CommentInstr) String() string { return "; " + i.Text }

func typeNodeToStr(t TypeNode, isConst, isGlobal bool) string {
	s := t.String()
	if isGlobal {
		s = "global " + s
	}
	if isConst {
		s = "const " + s
	}
	return s
}

// TACGenerator lowers a checked AST into a flat instruction sequence.
// Enum variant names are resolved to integer constants in a pre-scan, so
// every later reference compiles directly to an Int operand.
type TACGenerator struct {
	instructions []Instruction
	tempCount    int
	labelCount   int
	breakStack   []string
	enumMap      map[string]int64
}

// NewTACGenerator creates an empty generator.
func NewTACGenerator() *TACGenerator {
	return &TACGenerator{enumMap: make(map[string]int64)}
}

func (tg *TACGenerator) newTemp() Operand {
	t := &TempOperand{Index: tg.tempCount}
	tg.tempCount++
	return t
}

func (tg *TACGenerator) newLabel() string {
	l := "L" + strconv.Itoa(tg.labelCount)
	tg.labelCount++
	return l
}

func (tg *TACGenerator) emit(instr Instruction) { tg.instructions = append(tg.instructions, instr) }

// Generate lowers every top-level declaration in order and returns the
// complete instruction sequence.
func (tg *TACGenerator) Generate(prog *Program) []Instruction {
	tg.preScanEnums(prog)
	for _, d := range prog.Decls {
		tg.genStmt(d)
	}
	return tg.instructions
}

func (tg *TACGenerator) preScanEnums(prog *Program) {
	for _, d := range prog.Decls {
		if e, ok := d.(*EnumDecl); ok {
			for i, v := range e.Values.Values {
				tg.enumMap[v] = int64(i)
			}
		}
	}
}

func (tg *TACGenerator) genExpr(e Expr) Operand {
	switch ex := e.(type) {
	case *IntLit:
		return &IntOperand{Value: ex.Value}
	case *FloatLit:
		return &FloatOperand{Value: ex.Value}
	case *StringLit:
		return &StringOperand{Value: ex.Value}
	case *CharLit:
		return &CharOperand{Value: ex.Value}
	case *BoolLit:
		return &BoolOperand{Value: ex.Value}
	case *Ident:
		if id, ok := tg.enumMap[ex.Name]; ok {
			return &IntOperand{Value: id}
		}
		return &VarOperand{Name: ex.Name}
	case *BinaryExpr:
		right := tg.genExpr(ex.Right)
		if ex.Op == TokAssign {
			left := tg.genExpr(ex.Left)
			tg.emit(&AssignInstr{Dest: left, Src: right})
			return left
		}
		left := tg.genExpr(ex.Left)
		dest := tg.newTemp()
		tg.emit(&BinaryInstr{Dest: dest, Op: ex.Op, Left: left, Right: right})
		return dest
	case *UnaryExpr:
		operand := tg.genExpr(ex.Operand)
		if ex.Op == TokIncrement || ex.Op == TokDecrement {
			op := TokPlus
			if ex.Op == TokDecrement {
				op = TokMinus
			}
			if ex.Postfix {
				saved := tg.newTemp()
				tg.emit(&AssignInstr{Dest: saved, Src: operand})
				tg.emit(&BinaryInstr{Dest: operand, Op: op, Left: operand, Right: &IntOperand{Value: 1}})
				return saved
			}
			tg.emit(&BinaryInstr{Dest: operand, Op: op, Left: operand, Right: &IntOperand{Value: 1}})
			return operand
		}
		dest := tg.newTemp()
		tg.emit(&UnaryInstr{Dest: dest, Op: ex.Op, Src: operand})
		return dest
	case *CallExpr:
		argOps := make([]Operand, 0, len(ex.Args))
		for _, a := range ex.Args {
			argOps = append(argOps, tg.genExpr(a))
		}
		for _, a := range argOps {
			tg.emit(&ParamInstr{Value: a})
		}
		dest := tg.newTemp()
		tg.emit(&CallInstr{Dest: dest, Func: ex.Callee.Name, ArgCount: len(argOps)})
		return dest
	default:
		return nil
	}
}

func (tg *TACGenerator) genStmt(s Stmt) {
	switch st := s.(type) {
	case *VarDecl:
		t := typeNodeToStr(st.Type, st.IsConst, st.IsGlobal)
		var init Operand
		if st.Initializer != nil {
			init = tg.genExpr(st.Initializer)
		}
		tg.emit(&DeclareInstr{Type: t, Name: st.Name, Init: init})
	case *FuncProto:
		// a prototype has no body, so it lowers to nothing
	case *FuncDecl:
		retT := typeNodeToStr(st.ReturnType, false, false)
		params := make([]ParamSig, len(st.Params))
		for i, p := range st.Params {
			params[i] = ParamSig{Type: typeNodeToStr(p.Type, false, false), Name: p.Name}
		}
		tg.emit(&FuncStartInstr{Name: st.Name, ReturnType: retT, Params: params})
		for _, s2 := range st.Body {
			tg.genStmt(s2)
		}
		tg.emit(&FuncEndInstr{})
	case *MainDecl:
		tg.emit(&FuncStartInstr{Name: "main", ReturnType: "void"})
		for _, s2 := range st.Body {
			tg.genStmt(s2)
		}
		tg.emit(&FuncEndInstr{})
	case *IfStmt:
		cond := tg.genExpr(st.Cond)
		if st.ElseBody == nil {
			lEnd := tg.newLabel()
			tg.emit(&IfFalseInstr{Cond: cond, Target: lEnd})
			for _, s2 := range st.ThenBody {
				tg.genStmt(s2)
			}
			tg.emit(&LabelInstr{Name: lEnd})
		} else {
			lElse := tg.newLabel()
			lEnd := tg.newLabel()
			tg.emit(&IfFalseInstr{Cond: cond, Target: lElse})
			for _, s2 := range st.ThenBody {
				tg.genStmt(s2)
			}
			tg.emit(&GotoInstr{Target: lEnd})
			tg.emit(&LabelInstr{Name: lElse})
			for _, s2 := range st.ElseBody {
				tg.genStmt(s2)
			}
			tg.emit(&LabelInstr{Name: lEnd})
		}
	case *WhileStmt:
		lStart, lEnd := tg.newLabel(), tg.newLabel()
		tg.breakStack = append(tg.breakStack, lEnd)
		tg.emit(&LabelInstr{Name: lStart})
		cond := tg.genExpr(st.Cond)
		tg.emit(&IfFalseInstr{Cond: cond, Target: lEnd})
		for _, s2 := range st.Body {
			tg.genStmt(s2)
		}
		tg.emit(&GotoInstr{Target: lStart})
		tg.emit(&LabelInstr{Name: lEnd})
		tg.breakStack = tg.breakStack[:len(tg.breakStack)-1]
	case *DoWhileStmt:
		lStart, lEnd := tg.newLabel(), tg.newLabel()
		tg.breakStack = append(tg.breakStack, lEnd)
		tg.emit(&LabelInstr{Name: lStart})
		for _, s2 := range st.Body {
			tg.genStmt(s2)
		}
		cond := tg.genExpr(st.Cond)
		tg.emit(&IfTrueInstr{Cond: cond, Target: lStart})
		tg.emit(&LabelInstr{Name: lEnd})
		tg.breakStack = tg.breakStack[:len(tg.breakStack)-1]
	case *ForStmt:
		lStart, lEnd := tg.newLabel(), tg.newLabel()
		if st.Init != nil {
			tg.genStmt(st.Init)
		}
		tg.breakStack = append(tg.breakStack, lEnd)
		tg.emit(&LabelInstr{Name: lStart})
		if st.Cond != nil {
			c := tg.genExpr(st.Cond)
			tg.emit(&IfFalseInstr{Cond: c, Target: lEnd})
		}
		for _, s2 := range st.Body {
			tg.genStmt(s2)
		}
		if st.Update != nil {
			tg.genExpr(st.Update)
		}
		tg.emit(&GotoInstr{Target: lStart})
		tg.emit(&LabelInstr{Name: lEnd})
		tg.breakStack = tg.breakStack[:len(tg.breakStack)-1]
	case *SwitchStmt:
		// Dispatch is a chain of equality tests that jump directly into a
		// case's body; bodies themselves are emitted back-to-back with no
		// per-case re-test, so execution falls through from one case into
		// the next exactly like C unless a break (goto lEnd) intervenes.
		lEnd := tg.newLabel()
		expr := tg.genExpr(st.Expr)
		tg.breakStack = append(tg.breakStack, lEnd)

		caseLabels := make([]string, len(st.Cases))
		for i := range st.Cases {
			caseLabels[i] = tg.newLabel()
		}
		var defaultLabel string
		if st.DefaultBody != nil {
			defaultLabel = tg.newLabel()
		}

		for i, c := range st.Cases {
			val := tg.genExpr(c.Value)
			tMatch := tg.newTemp()
			tg.emit(&BinaryInstr{Dest: tMatch, Op: TokEq, Left: expr, Right: val})
			tg.emit(&IfTrueInstr{Cond: tMatch, Target: caseLabels[i]})
		}
		if defaultLabel != "" {
			tg.emit(&GotoInstr{Target: defaultLabel})
		} else {
			tg.emit(&GotoInstr{Target: lEnd})
		}

		for i, c := range st.Cases {
			tg.emit(&LabelInstr{Name: caseLabels[i]})
			for _, s2 := range c.Body {
				tg.genStmt(s2)
			}
		}
		if defaultLabel != "" {
			tg.emit(&LabelInstr{Name: defaultLabel})
			for _, s2 := range st.DefaultBody {
				tg.genStmt(s2)
			}
		}
		tg.emit(&LabelInstr{Name: lEnd})
		tg.breakStack = tg.breakStack[:len(tg.breakStack)-1]
	case *ReturnStmt:
		var val Operand
		if st.Value != nil {
			val = tg.genExpr(st.Value)
		}
		tg.emit(&ReturnInstr{Value: val})
	case *BreakStmt:
		if len(tg.breakStack) > 0 {
			tg.emit(&GotoInstr{Target: tg.breakStack[len(tg.breakStack)-1]})
		}
	case *PrintStmt:
		ops := make([]Operand, 0, len(st.Args))
		for _, a := range st.Args {
			ops = append(ops, tg.genExpr(a))
		}
		tg.emit(&PrintInstr{Args: ops})
	case *BlockStmt:
		for _, s2 := range st.Body {
			tg.genStmt(s2)
		}
	case *ExprStmt:
		tg.genExpr(st.X)
	case *EnumDecl:
		tg.emit(&CommentInstr{Text: "enum " + st.Name + " defined"})
	case *IncludeStmt:
		// reserved, never lowered
	}
}
