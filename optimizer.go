// Completion: 100% - Four-pass optimizer run twice, then dead-code elimination to a fixed point
package minic

import (
	"strconv"
	"strings"
)

func getOperandKey(op Operand) (string, bool) {
	switch o := op.(type) {
	case *VarOperand:
		return o.Name, true
	case *TempOperand:
		return "t" + strconv.Itoa(o.Index), true
	default:
		return "", false
	}
}

// Optimize runs two iterations of constant-folding, constant-propagation,
// copy-propagation, and peephole simplification, then a single dead-code
// elimination pass to a fixed point.
func Optimize(instrs []Instruction) []Instruction {
	for iter := 0; iter < 2; iter++ {
		constantFolding(instrs)
		constantPropagation(instrs)
		copyPropagation(instrs)
		instrs = peephole(instrs)
	}
	return deadCodeElimination(instrs)
}

// constantFolding rewrites Binary(dest, op, IntLit, IntLit) to
// Assign(dest, IntLit(result)) for +, -, *, and / (division only when the
// divisor is nonzero).
func constantFolding(instrs []Instruction) {
	for i, instr := range instrs {
		b, ok := instr.(*BinaryInstr)
		if !ok {
			continue
		}
		l, ok1 := b.Left.(*IntOperand)
		r, ok2 := b.Right.(*IntOperand)
		if !ok1 || !ok2 {
			continue
		}
		var result *IntOperand
		switch b.Op {
		case TokPlus:
			result = &IntOperand{Value: l.Value + r.Value}
		case TokMinus:
			result = &IntOperand{Value: l.Value - r.Value}
		case TokStar:
			result = &IntOperand{Value: l.Value * r.Value}
		case TokSlash:
			if r.Value != 0 {
				result = &IntOperand{Value: l.Value / r.Value}
			}
		}
		if result != nil {
			instrs[i] = &AssignInstr{Dest: b.Dest, Src: result}
		}
	}
}

// scanGlobalConstBaseline collects every const-typed, literal-initialized
// global declaration appearing before the first FuncStart. These survive
// the aggressive invalidation that constant propagation otherwise applies
// at labels and function boundaries.
func scanGlobalConstBaseline(instrs []Instruction) map[string]Operand {
	baseline := make(map[string]Operand)
	for _, instr := range instrs {
		if _, ok := instr.(*FuncStartInstr); ok {
			break
		}
		if d, ok := instr.(*DeclareInstr); ok {
			if strings.Contains(d.Type, "const") && d.Init != nil && isLiteral(d.Init) {
				baseline[d.Name] = d.Init
			}
		}
	}
	return baseline
}

// constantPropagation maintains a name -> literal-operand mapping, seeded
// with the global const baseline. Only const-typed, literal-initialized
// declarations add entries; any other write invalidates. Labels and
// function boundaries purge the map back down to the baseline.
func constantPropagation(instrs []Instruction) {
	baseline := scanGlobalConstBaseline(instrs)
	constants := make(map[string]Operand, len(baseline))
	for k, v := range baseline {
		constants[k] = v
	}
	resetToBaseline := func() {
		constants = make(map[string]Operand, len(baseline))
		for k, v := range baseline {
			constants[k] = v
		}
	}

	for _, instr := range instrs {
		switch ins := instr.(type) {
		case *DeclareInstr:
			if ins.Init != nil {
				if k, ok := getOperandKey(ins.Init); ok {
					if c, ok2 := constants[k]; ok2 {
						ins.Init = c
					}
				}
			}
			if strings.Contains(ins.Type, "const") && ins.Init != nil && isLiteral(ins.Init) {
				constants[ins.Name] = ins.Init
			} else {
				delete(constants, ins.Name)
			}
		case *AssignInstr:
			if k, ok := getOperandKey(ins.Src); ok {
				if c, ok2 := constants[k]; ok2 {
					ins.Src = c
				}
			}
			if dk, ok := getOperandKey(ins.Dest); ok {
				delete(constants, dk)
			}
		case *BinaryInstr:
			if lk, ok := getOperandKey(ins.Left); ok {
				if c, ok2 := constants[lk]; ok2 {
					ins.Left = c
				}
			}
			if rk, ok := getOperandKey(ins.Right); ok {
				if c, ok2 := constants[rk]; ok2 {
					ins.Right = c
				}
			}
			if dk, ok := getOperandKey(ins.Dest); ok {
				delete(constants, dk)
			}
		case *UnaryInstr:
			if sk, ok := getOperandKey(ins.Src); ok {
				if c, ok2 := constants[sk]; ok2 {
					ins.Src = c
				}
			}
			if dk, ok := getOperandKey(ins.Dest); ok {
				delete(constants, dk)
			}
		case *IfTrueInstr:
			if ck, ok := getOperandKey(ins.Cond); ok {
				if c, ok2 := constants[ck]; ok2 {
					ins.Cond = c
				}
			}
		case *IfFalseInstr:
			if ck, ok := getOperandKey(ins.Cond); ok {
				if c, ok2 := constants[ck]; ok2 {
					ins.Cond = c
				}
			}
		case *ParamInstr:
			if pk, ok := getOperandKey(ins.Value); ok {
				if c, ok2 := constants[pk]; ok2 {
					ins.Value = c
				}
			}
		case *CallInstr:
			if ins.Dest != nil {
				if dk, ok := getOperandKey(ins.Dest); ok {
					delete(constants, dk)
				}
			}
		case *ReturnInstr:
			if ins.Value != nil {
				if vk, ok := getOperandKey(ins.Value); ok {
					if c, ok2 := constants[vk]; ok2 {
						ins.Value = c
					}
				}
			}
		case *PrintInstr:
			for i, a := range ins.Args {
				if ak, ok := getOperandKey(a); ok {
					if c, ok2 := constants[ak]; ok2 {
						ins.Args[i] = c
					}
				}
			}
		case *LabelInstr:
			resetToBaseline()
		case *FuncStartInstr:
			resetToBaseline()
		}
	}
}

// copyPropagation maintains name -> operand for direct, non-literal
// copies. Any redefinition of a name purges both that key and any entry
// whose value references it. Labels and function boundaries clear fully.
func copyPropagation(instrs []Instruction) {
	copies := make(map[string]Operand)
	purge := func(name string) {
		delete(copies, name)
		for k, v := range copies {
			if vk, ok := getOperandKey(v); ok && vk == name {
				delete(copies, k)
			}
		}
	}

	for _, instr := range instrs {
		switch ins := instr.(type) {
		case *DeclareInstr:
			if ins.Init != nil {
				if k, ok := getOperandKey(ins.Init); ok {
					if orig, ok2 := copies[k]; ok2 {
						ins.Init = orig
					}
				}
			}
			purge(ins.Name)
		case *AssignInstr:
			if k, ok := getOperandKey(ins.Src); ok {
				if orig, ok2 := copies[k]; ok2 {
					ins.Src = orig
				}
			}
			if dk, ok := getOperandKey(ins.Dest); ok {
				purge(dk)
				if !isLiteral(ins.Src) {
					if _, ok2 := getOperandKey(ins.Src); ok2 {
						copies[dk] = ins.Src
					}
				}
			}
		case *BinaryInstr:
			if lk, ok := getOperandKey(ins.Left); ok {
				if orig, ok2 := copies[lk]; ok2 {
					ins.Left = orig
				}
			}
			if rk, ok := getOperandKey(ins.Right); ok {
				if orig, ok2 := copies[rk]; ok2 {
					ins.Right = orig
				}
			}
			if dk, ok := getOperandKey(ins.Dest); ok {
				purge(dk)
			}
		case *UnaryInstr:
			if sk, ok := getOperandKey(ins.Src); ok {
				if orig, ok2 := copies[sk]; ok2 {
					ins.Src = orig
				}
			}
			if dk, ok := getOperandKey(ins.Dest); ok {
				purge(dk)
			}
		case *IfTrueInstr:
			if ck, ok := getOperandKey(ins.Cond); ok {
				if orig, ok2 := copies[ck]; ok2 {
					ins.Cond = orig
				}
			}
		case *IfFalseInstr:
			if ck, ok := getOperandKey(ins.Cond); ok {
				if orig, ok2 := copies[ck]; ok2 {
					ins.Cond = orig
				}
			}
		case *ParamInstr:
			if pk, ok := getOperandKey(ins.Value); ok {
				if orig, ok2 := copies[pk]; ok2 {
					ins.Value = orig
				}
			}
		case *CallInstr:
			if ins.Dest != nil {
				if dk, ok := getOperandKey(ins.Dest); ok {
					purge(dk)
				}
			}
		case *ReturnInstr:
			if ins.Value != nil {
				if vk, ok := getOperandKey(ins.Value); ok {
					if orig, ok2 := copies[vk]; ok2 {
						ins.Value = orig
					}
				}
			}
		case *PrintInstr:
			for i, a := range ins.Args {
				if ak, ok := getOperandKey(a); ok {
					if orig, ok2 := copies[ak]; ok2 {
						ins.Args[i] = orig
					}
				}
			}
		case *LabelInstr:
			copies = make(map[string]Operand)
		case *FuncStartInstr:
			copies = make(map[string]Operand)
		}
	}
}

func sameOperand(a, b Operand) bool {
	switch av := a.(type) {
	case *VarOperand:
		bv, ok := b.(*VarOperand)
		return ok && av.Name == bv.Name
	case *TempOperand:
		bv, ok := b.(*TempOperand)
		return ok && av.Index == bv.Index
	default:
		return false
	}
}

// peephole rewrites local Binary patterns to Assign and removes a Goto(L)
// immediately followed by Label(L).
func peephole(instrs []Instruction) []Instruction {
	for i, instr := range instrs {
		b, ok := instr.(*BinaryInstr)
		if !ok {
			continue
		}
		zero := &IntOperand{Value: 0}
		switch {
		case b.Op == TokPlus && sameAsIntLiteral(b.Right, 0):
			instrs[i] = &AssignInstr{Dest: b.Dest, Src: b.Left}
		case b.Op == TokPlus && sameAsIntLiteral(b.Left, 0):
			instrs[i] = &AssignInstr{Dest: b.Dest, Src: b.Right}
		case b.Op == TokMinus && sameAsIntLiteral(b.Right, 0):
			instrs[i] = &AssignInstr{Dest: b.Dest, Src: b.Left}
		case b.Op == TokMinus && sameOperand(b.Left, b.Right):
			instrs[i] = &AssignInstr{Dest: b.Dest, Src: zero}
		case b.Op == TokStar && sameAsIntLiteral(b.Right, 1):
			instrs[i] = &AssignInstr{Dest: b.Dest, Src: b.Left}
		case b.Op == TokStar && sameAsIntLiteral(b.Left, 1):
			instrs[i] = &AssignInstr{Dest: b.Dest, Src: b.Right}
		case b.Op == TokStar && sameAsIntLiteral(b.Right, 0):
			instrs[i] = &AssignInstr{Dest: b.Dest, Src: zero}
		case b.Op == TokStar && sameAsIntLiteral(b.Left, 0):
			instrs[i] = &AssignInstr{Dest: b.Dest, Src: zero}
		case b.Op == TokSlash && sameAsIntLiteral(b.Right, 1):
			instrs[i] = &AssignInstr{Dest: b.Dest, Src: b.Left}
		}
	}

	out := make([]Instruction, 0, len(instrs))
	for i := 0; i < len(instrs); i++ {
		if g, ok := instrs[i].(*GotoInstr); ok && i+1 < len(instrs) {
			if l, ok2 := instrs[i+1].(*LabelInstr); ok2 && g.Target == l.Name {
				continue
			}
		}
		out = append(out, instrs[i])
	}
	return out
}

func sameAsIntLiteral(op Operand, v int64) bool {
	i, ok := op.(*IntOperand)
	return ok && i.Value == v
}

// deadCodeElimination removes instructions whose destination is never
// used as a source anywhere, iterating until nothing more can be removed.
// A Call with an unused destination keeps its side effect but drops the
// assignment.
func deadCodeElimination(instrs []Instruction) []Instruction {
	modified := true
	for modified {
		modified = false
		used := make(map[string]bool)
		mark := func(op Operand) {
			if op == nil {
				return
			}
			if k, ok := getOperandKey(op); ok {
				used[k] = true
			}
		}

		for _, instr := range instrs {
			switch ins := instr.(type) {
			case *DeclareInstr:
				if ins.Init != nil {
					mark(ins.Init)
				}
			case *AssignInstr:
				mark(ins.Src)
			case *BinaryInstr:
				mark(ins.Left)
				mark(ins.Right)
			case *UnaryInstr:
				mark(ins.Src)
			case *IfTrueInstr:
				mark(ins.Cond)
			case *IfFalseInstr:
				mark(ins.Cond)
			case *ParamInstr:
				mark(ins.Value)
			case *ReturnInstr:
				if ins.Value != nil {
					mark(ins.Value)
				}
			case *PrintInstr:
				for _, a := range ins.Args {
					mark(a)
				}
			}
		}

		next := make([]Instruction, 0, len(instrs))
		for _, instr := range instrs {
			dead := false
			switch ins := instr.(type) {
			case *AssignInstr:
				if k, ok := getOperandKey(ins.Dest); ok && !used[k] {
					dead = true
				}
			case *UnaryInstr:
				if k, ok := getOperandKey(ins.Dest); ok && !used[k] {
					dead = true
				}
			case *BinaryInstr:
				if k, ok := getOperandKey(ins.Dest); ok && !used[k] {
					dead = true
				}
			case *DeclareInstr:
				if !strings.Contains(ins.Type, "global") && !used[ins.Name] {
					dead = true
				}
			case *CallInstr:
				if ins.Dest != nil {
					if k, ok := getOperandKey(ins.Dest); ok && !used[k] {
						instr = &CallInstr{Dest: nil, Func: ins.Func, ArgCount: ins.ArgCount}
						modified = true
					}
				}
			}
			if dead {
				modified = true
				continue
			}
			next = append(next, instr)
		}
		instrs = next
	}
	return instrs
}
