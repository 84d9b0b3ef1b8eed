// Completion: 100% - Top-level Run() wiring every stage of the pipeline together
package minic

// Run compiles and executes a complete source program, driving it through
// the lexer, parser, scope analyzer, type checker, TAC generator, TAC
// optimizer, and TAC interpreter in turn. The first stage to report a
// diagnostic stops the pipeline; its rendered diagnostics are returned
// instead of program output.
func Run(source string) string {
	lexer := NewLexer(source)
	tokens := lexer.Tokenize()

	lexErrs := NewErrorCollector(source)
	for _, t := range tokens {
		if t.Kind == TokError {
			lexErrs.Add(StageLexical, t.Line, t.Column, t.Lexeme)
		}
	}
	if lexErrs.HasErrors() {
		return lexErrs.Render()
	}

	parser := NewParser(tokens)
	prog, perr := parser.ParseProgram()
	if perr != nil {
		errs := NewErrorCollector(source)
		errs.Add(StageSyntax, perr.Token.Line, perr.Token.Column, perr.Message)
		return errs.Render()
	}

	scopeAnalyzer := NewScopeAnalyzer(source)
	global, scopeErrs := scopeAnalyzer.Analyze(prog)
	if scopeErrs.HasErrors() {
		return scopeErrs.Render()
	}

	checker := NewTypeChecker(source, global)
	typeErrs := checker.Check(prog)
	if typeErrs.HasErrors() {
		return typeErrs.Render()
	}

	gen := NewTACGenerator()
	instrs := gen.Generate(prog)
	instrs = Optimize(instrs)

	engine := NewExecutionEngine(instrs)
	output, rerr := engine.Execute()
	if rerr != nil {
		errs := NewErrorCollector(source)
		errs.Add(StageRuntime, 0, 0, rerr.Error())
		return errs.Render()
	}
	return output
}
