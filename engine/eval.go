package engine

import (
	"fmt"

	"earshot/config"
	"earshot/log"
	"earshot/value"
)

// normalPass evaluates every dispatchable normal trigger. Each trigger
// dispatches at most once per tick no matter how many of its watches
// matched; queue order is profile order.
func (e *Engine) normalPass() {
	for _, ts := range e.normals {
		if e.evalNormal(ts) {
			e.dispatch(ts)
		}
	}
}

// evalNormal walks the trigger's watch slots. Dependents gate only the
// first slot's match; a failed gate falls through to the later slots.
func (e *Engine) evalNormal(ts *triggerState) bool {
	fired := false
	for i, wid := range ts.cfg.Watches {
		ws := e.watchByID[wid]
		if !ws.fresh {
			continue
		}
		matched := e.evaluate(ts, i, ws.val)
		if !matched {
			continue
		}
		if i == 0 && len(ts.cfg.Secondary) > 0 && !e.dependentsHold(ts) {
			continue
		}
		fired = true
	}
	return fired
}

// evaluate runs the discrete comparison for one watch slot and always
// leaves the new value behind as the slot's previous value. Ordered and
// equality kinds fire on the edge only: the previous value must not
// have satisfied the comparison, unless the trigger is a modifier,
// which asks "is it true right now" every tick.
func (e *Engine) evaluate(ts *triggerState, i int, cur value.Value) bool {
	t := ts.cfg
	modifier := t.Kind == config.TriggerModifier
	if !ts.seeded[i] {
		ts.seeded[i] = true
		ts.prev[i] = cur
		if !modifier {
			return false
		}
	}
	prev := ts.prev[i]
	ts.prev[i] = cur

	matched, err := discreteMatch(t.Comparison, cur, prev, t.TargetValue(), modifier)
	if err != nil {
		e.stats.SkippedEval++
		log.Warnf("trigger %d: %v", t.ID, err)
		return false
	}
	return matched
}

func discreteMatch(k config.CompareKind, cur, prev, target value.Value, modifier bool) (bool, error) {
	switch k {
	case config.CompareChanged:
		return cur.Text() != prev.Text(), nil
	case config.CompareIncreased:
		c, err := cur.Compare(prev)
		return c > 0, err
	case config.CompareDecreased:
		c, err := cur.Compare(prev)
		return c < 0, err
	}
	matched, err := compareTarget(k, cur, target)
	if err != nil || !matched || modifier {
		return matched, err
	}
	prevSat, err := compareTarget(k, prev, target)
	if err != nil {
		return false, err
	}
	return !prevSat, nil
}

func compareTarget(k config.CompareKind, v, target value.Value) (bool, error) {
	switch k {
	case config.CompareEqual:
		return v.Equal(target)
	case config.CompareNotEqual:
		eq, err := v.Equal(target)
		return !eq, err
	case config.CompareLess:
		c, err := v.Compare(target)
		return c < 0, err
	case config.CompareLessEqual:
		c, err := v.Compare(target)
		return c <= 0, err
	case config.CompareGreater:
		c, err := v.Compare(target)
		return c > 0, err
	case config.CompareGreaterEqual:
		c, err := v.Compare(target)
		return c >= 0, err
	}
	return false, fmt.Errorf("comparison %s is not discrete", k)
}

// dependentsHold checks every secondary in order and stops at the
// first that fails.
func (e *Engine) dependentsHold(ts *triggerState) bool {
	for _, id := range ts.cfg.Secondary {
		if !e.dependentHolds(e.trigByID[id]) {
			return false
		}
	}
	return true
}

// dependentHolds evaluates a dependent trigger's condition without any
// edge requirement. The result is cached for the tick so two parents
// consulting the same dependent see one answer and its previous value
// moves once.
func (e *Engine) dependentHolds(dep *triggerState) bool {
	if dep.depTick == e.tickN {
		return dep.depResult
	}
	dep.depTick = e.tickN
	dep.depResult = false

	ws := e.watchByID[dep.cfg.Watches[0]]
	if !ws.fresh {
		return false
	}
	cur := ws.val

	var matched bool
	var err error
	switch dep.cfg.Comparison {
	case config.CompareChanged, config.CompareIncreased, config.CompareDecreased:
		if !dep.seeded[0] {
			dep.seeded[0] = true
			dep.prev[0] = cur
			return false
		}
		prev := dep.prev[0]
		dep.prev[0] = cur
		switch dep.cfg.Comparison {
		case config.CompareChanged:
			matched = cur.Text() != prev.Text()
		case config.CompareIncreased:
			var c int
			c, err = cur.Compare(prev)
			matched = c > 0
		default:
			var c int
			c, err = cur.Compare(prev)
			matched = c < 0
		}
	default:
		matched, err = compareTarget(dep.cfg.Comparison, cur, dep.cfg.TargetValue())
	}
	if err != nil {
		e.stats.SkippedEval++
		log.Warnf("dependent trigger %d: %v", dep.cfg.ID, err)
		return false
	}
	dep.depResult = matched
	return matched
}
