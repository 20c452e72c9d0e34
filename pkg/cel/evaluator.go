package cel

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"

	"nasrelay/pkg/models"
)

// Evaluator compiles boolean filter expressions over a notification.
// Available variables: title, message, topic, priority, priority_level, tags.
// The string extension library (lowerAscii, trim, split, ...) is loaded.
type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("title", cel.StringType),
		cel.Variable("message", cel.StringType),
		cel.Variable("topic", cel.StringType),
		cel.Variable("priority", cel.StringType),
		cel.Variable("priority_level", cel.IntType),
		cel.Variable("tags", cel.ListType(cel.StringType)),
		ext.Strings(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

func (e *Evaluator) ValidateFilterExpression(expression string) error {
	_, err := e.compileFilter(expression)
	return err
}

func (e *Evaluator) compileFilter(expression string) (*cel.Ast, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("filter expression must return bool, got %v", ast.OutputType())
	}

	return ast, nil
}

// Filter is a compiled filter expression, safe for concurrent use.
type Filter struct {
	expression string
	program    cel.Program
}

func (e *Evaluator) CompileFilter(expression string) (*Filter, error) {
	ast, err := e.compileFilter(expression)
	if err != nil {
		return nil, err
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &Filter{expression: expression, program: program}, nil
}

// NewFilter builds an evaluator and compiles expression with it.
func NewFilter(expression string) (*Filter, error) {
	eval, err := NewEvaluator()
	if err != nil {
		return nil, err
	}
	return eval.CompileFilter(expression)
}

func (f *Filter) Expression() string {
	return f.expression
}

// Matches reports whether n passes the filter.
func (f *Filter) Matches(ctx context.Context, n *models.Notification) (bool, error) {
	if n == nil {
		return false, fmt.Errorf("cannot filter nil notification")
	}

	result, _, err := f.program.ContextEval(ctx, notificationVars(n))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}

func notificationVars(n *models.Notification) map[string]interface{} {
	level, _ := n.Priority.Level()

	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}

	return map[string]interface{}{
		"title":          n.Title,
		"message":        n.Message,
		"topic":          n.Topic,
		"priority":       n.Priority.String(),
		"priority_level": int64(level),
		"tags":           tags,
	}
}
