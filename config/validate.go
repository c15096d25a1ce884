package config

import (
	"fmt"

	"earshot/value"
)

// validate rejects profiles the engine could not run faithfully. Every
// rule here guards something the poll loop assumes.
func (g *Game) validate() error {
	if g.Session.Process == "" {
		return fmt.Errorf("session: process name missing")
	}
	if g.Session.PollMs < 0 {
		return fmt.Errorf("session: poll_ms must be positive")
	}
	if g.Session.ClockMs < 0 {
		return fmt.Errorf("session: clock_ms must be positive")
	}
	if len(g.Watches) == 0 {
		return fmt.Errorf("profile has no watches")
	}
	for i := range g.Watches {
		if err := g.validateWatch(&g.Watches[i]); err != nil {
			return err
		}
	}
	for i := range g.Triggers {
		if err := g.validateTrigger(&g.Triggers[i]); err != nil {
			return err
		}
	}
	return g.validateClock()
}

func (g *Game) validateWatch(w *Watch) error {
	if w.Kind == value.Invalid {
		return fmt.Errorf("watch %d: kind missing", w.ID)
	}
	if len(w.Chain) == 0 {
		return fmt.Errorf("watch %d: chain missing", w.ID)
	}
	if w.Chars < 0 || (w.Chars > 0 && !w.Kind.IsText()) {
		return fmt.Errorf("watch %d: chars only applies to text kinds", w.ID)
	}
	if w.Chars > value.MaxTextChars {
		return fmt.Errorf("watch %d: chars above limit %d", w.ID, value.MaxTextChars)
	}
	return nil
}

func (g *Game) validateTrigger(t *Trigger) error {
	for _, id := range t.Watches {
		if g.Watch(id) == nil {
			return fmt.Errorf("trigger %d: unknown watch %d", t.ID, id)
		}
	}
	if t.Volume < 0 {
		return fmt.Errorf("trigger %d: negative volume", t.ID)
	}
	if t.Speed <= 0 {
		return fmt.Errorf("trigger %d: speed must be positive", t.ID)
	}
	switch t.Kind {
	case TriggerNormal:
		return g.validateNormal(t)
	case TriggerContinuous:
		return g.validateContinuous(t)
	case TriggerModifier:
		return g.validateModifier(t)
	case TriggerDependent:
		return g.validateDependent(t)
	}
	return fmt.Errorf("trigger %d: unknown kind", t.ID)
}

func (g *Game) validateNormal(t *Trigger) error {
	if len(t.Watches) == 0 {
		return fmt.Errorf("trigger %d: needs a watch", t.ID)
	}
	if t.Comparison.IsContinuous() {
		return fmt.Errorf("trigger %d: %s is reserved for continuous triggers", t.ID, t.Comparison)
	}
	// Secondaries must be dependent triggers. Dependents cannot list
	// secondaries of their own, so gating chains are one level deep and
	// can never loop.
	for _, id := range t.Secondary {
		dep := g.Trigger(id)
		if dep == nil {
			return fmt.Errorf("trigger %d: unknown secondary %d", t.ID, id)
		}
		if dep.Kind != TriggerDependent {
			return fmt.Errorf("trigger %d: secondary %d is %s, want dependent", t.ID, id, dep.Kind)
		}
	}
	if err := g.parseTarget(t); err != nil {
		return err
	}
	// The clock trigger is never dispatched, so it carries no payload.
	if t.IsClock(g) {
		return nil
	}
	return g.validatePayload(t)
}

func (g *Game) validateContinuous(t *Trigger) error {
	if len(t.Watches) != 2 {
		return fmt.Errorf("trigger %d: continuous needs exactly two watches", t.ID)
	}
	if !t.Comparison.IsContinuous() {
		return fmt.Errorf("trigger %d: continuous trigger with %s comparison", t.ID, t.Comparison)
	}
	for _, id := range t.Watches {
		if !g.Watch(id).Kind.IsNumeric() {
			return fmt.Errorf("trigger %d: watch %d is not numeric", t.ID, id)
		}
	}
	if len(t.Secondary) != 0 {
		return fmt.Errorf("trigger %d: continuous triggers take no secondaries", t.ID)
	}
	if t.Speech {
		return fmt.Errorf("trigger %d: continuous triggers cannot use speech", t.ID)
	}
	if t.Sample == "" {
		return fmt.Errorf("trigger %d: sample missing", t.ID)
	}
	maxRange, err := value.Parse(value.Float64, t.Target)
	if err != nil {
		return fmt.Errorf("trigger %d: max range: %w", t.ID, err)
	}
	f, _ := maxRange.Float()
	if f <= 0 {
		return fmt.Errorf("trigger %d: max range must be positive", t.ID)
	}
	t.target = maxRange
	return nil
}

func (g *Game) validateModifier(t *Trigger) error {
	if len(t.Watches) != 1 {
		return fmt.Errorf("trigger %d: modifier needs exactly one watch", t.ID)
	}
	if t.Comparison.IsContinuous() || !t.Comparison.NeedsTarget() {
		return fmt.Errorf("trigger %d: modifier cannot use %s", t.ID, t.Comparison)
	}
	if len(t.Secondary) != 1 {
		return fmt.Errorf("trigger %d: modifier needs exactly one continuous target", t.ID)
	}
	tgt := g.Trigger(t.Secondary[0])
	if tgt == nil {
		return fmt.Errorf("trigger %d: unknown secondary %d", t.ID, t.Secondary[0])
	}
	if tgt.Kind != TriggerContinuous {
		return fmt.Errorf("trigger %d: secondary %d is %s, want continuous", t.ID, tgt.ID, tgt.Kind)
	}
	if t.Speech {
		return fmt.Errorf("trigger %d: modifiers cannot use speech", t.ID)
	}
	if t.Volume == 0 {
		return fmt.Errorf("trigger %d: modifier volume factor cannot be zero", t.ID)
	}
	return g.parseTarget(t)
}

func (g *Game) validateDependent(t *Trigger) error {
	if len(t.Watches) != 1 {
		return fmt.Errorf("trigger %d: dependent needs exactly one watch", t.ID)
	}
	if t.Comparison.IsContinuous() {
		return fmt.Errorf("trigger %d: dependent trigger with %s comparison", t.ID, t.Comparison)
	}
	if len(t.Secondary) != 0 {
		return fmt.Errorf("trigger %d: dependent triggers take no secondaries", t.ID)
	}
	return g.parseTarget(t)
}

// validatePayload checks a trigger actually has something to play.
// Dependents are exempt: they only gate.
func (g *Game) validatePayload(t *Trigger) error {
	if t.Speech {
		if t.Text == "" {
			return fmt.Errorf("trigger %d: speech trigger without text", t.ID)
		}
		for _, id := range WatchTokens(t.Text) {
			if g.Watch(id) == nil {
				return fmt.Errorf("trigger %d: text references unknown watch %d", t.ID, id)
			}
		}
		return nil
	}
	if t.Sample == "" {
		return fmt.Errorf("trigger %d: sample missing", t.ID)
	}
	return nil
}

// parseTarget converts the target literal against the first watch's
// kind so the poll loop never parses strings.
func (g *Game) parseTarget(t *Trigger) error {
	if !t.Comparison.NeedsTarget() {
		kind := g.Watch(t.Watches[0]).Kind
		if (t.Comparison == CompareIncreased || t.Comparison == CompareDecreased) && !kind.IsNumeric() {
			return fmt.Errorf("trigger %d: %s needs a numeric watch", t.ID, t.Comparison)
		}
		return nil
	}
	kind := g.Watch(t.Watches[0]).Kind
	if ordered(t.Comparison) && !kind.IsNumeric() {
		return fmt.Errorf("trigger %d: %s needs a numeric watch", t.ID, t.Comparison)
	}
	v, err := value.Parse(kind, t.Target)
	if err != nil {
		return fmt.Errorf("trigger %d: target: %w", t.ID, err)
	}
	t.target = v
	return nil
}

func ordered(k CompareKind) bool {
	switch k {
	case CompareLess, CompareLessEqual, CompareGreater, CompareGreaterEqual:
		return true
	}
	return false
}

func (g *Game) validateClock() error {
	id := g.Session.ClockTrigger
	if id == 0 {
		return nil
	}
	t := g.Trigger(id)
	if t == nil {
		return fmt.Errorf("session: unknown clock trigger %d", id)
	}
	if t.Kind != TriggerNormal {
		return fmt.Errorf("session: clock trigger %d is %s, want normal", id, t.Kind)
	}
	if !g.Watch(t.Watches[0]).Kind.IsNumeric() {
		return fmt.Errorf("session: clock trigger %d watches a non-numeric value", id)
	}
	return nil
}
