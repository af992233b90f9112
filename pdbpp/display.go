package pdbpp

import (
	"context"
	"errors"
	"fmt"
	"sort"

	e "github.com/bretello/pdbpp/error"
)

// undefinedValue marks watch expressions that do not resolve to a name
// in the current frame.
const undefinedValue = "<undefined>"

// displayList returns the watch list of the current frame, creating it
// on first use.
func (s *Session) displayList() map[string]string {
	f := s.currentFrame()
	if f == nil {
		return nil
	}
	list, ok := s.displays[f.ID()]
	if !ok {
		list = make(map[string]string)
		s.displays[f.ID()] = list
	}
	return list
}

func (s *Session) getvalOrUndefined(ctx context.Context, expr string) (string, error) {
	if s.tracer == nil {
		return "", e.ErrEvaluateFailed
	}
	value, err := s.tracer.Evaluate(ctx, s.currentFrame(), expr)
	if err != nil {
		if errors.Is(err, e.ErrUndefinedName) {
			return undefinedValue, nil
		}
		return "", err
	}
	return value, nil
}

func (s *Session) doDisplay(ctx context.Context, arg string) {
	value, err := s.getvalOrUndefined(ctx, arg)
	if err != nil {
		s.error(err)
		return
	}
	list := s.displayList()
	if list != nil {
		list[arg] = value
	}
}

func (s *Session) doUndisplay(arg string) {
	list := s.displayList()
	if _, ok := list[arg]; !ok {
		fmt.Fprintf(s.out, "** %s not in the display list **\n", arg)
		return
	}
	delete(list, arg)
}

// printDisplayChanges re-evaluates every watch of the current frame and
// prints the ones whose value changed. Values are compared with a plain
// equality short-circuit so an unchanged value never produces output.
func (s *Session) printDisplayChanges(ctx context.Context) {
	list := s.displayList()
	if len(list) == 0 {
		return
	}
	exprs := make([]string, 0, len(list))
	for expr := range list {
		exprs = append(exprs, expr)
	}
	sort.Strings(exprs)
	for _, expr := range exprs {
		oldValue := list[expr]
		newValue, err := s.getvalOrUndefined(ctx, expr)
		if err != nil {
			continue
		}
		if newValue != oldValue {
			list[expr] = newValue
			fmt.Fprintf(s.out, "%s: %s --> %s\n", expr, oldValue, newValue)
		}
	}
}
