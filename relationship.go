package sway

import (
	"fmt"
	"weak"
)

// curveBinding is a curve resolved against its primary axis and the
// holder property it writes.
type curveBinding struct {
	curve    *ParametricCurve
	axis     Axis
	property string
}

// ContentRelationship makes a secondary node follow a primary manipulated
// element through one parametric curve per tracked axis.
//
// Curves are authored in scroll-offset space: for translation axes the
// input is the negated content translation, and the result is negated again
// before it is written, so a curve of slope 1 moves the secondary visual
// with the content.
type ContentRelationship struct {
	registry *Registry
	id       ContentID

	primary   weak.Pointer[Node]
	secondary weak.Pointer[Node]
	holder    weak.Pointer[Node]

	// keepAlive pins the primary element while the relationship is applied.
	keepAlive *Node

	curves   []*ParametricCurve
	bindings []curveBinding

	targetsClip bool
	auxiliary   bool

	pending bool
	applied bool
	// token is the viewport the relationship is materialized against, 0 if none.
	token ViewportToken
}

// NewContentRelationship declares that secondary follows primary. Values
// are written to holder; a nil holder means secondary itself.
func NewContentRelationship(r *Registry, primary, secondary, holder *Node, curves ...*ParametricCurve) *ContentRelationship {
	if holder == nil {
		holder = secondary
	}
	rel := &ContentRelationship{
		registry:  r,
		primary:   weak.Make(primary),
		secondary: weak.Make(secondary),
		holder:    weak.Make(holder),
		curves:    curves,
	}
	if r != nil {
		rel.id = r.nextContentID()
	}
	return rel
}

// ID returns the content id used with the manipulation service.
func (rel *ContentRelationship) ID() ContentID { return rel.id }

// Primary returns the primary element, or nil once collected.
func (rel *ContentRelationship) Primary() *Node { return rel.primary.Value() }

// Secondary returns the secondary node, or nil once collected.
func (rel *ContentRelationship) Secondary() *Node { return rel.secondary.Value() }

// Holder returns the dependency holder, or nil once collected.
func (rel *ContentRelationship) Holder() *Node { return rel.holder.Value() }

// TargetsClip reports whether the relationship drives a clip transform.
func (rel *ContentRelationship) TargetsClip() bool { return rel.targetsClip }

// SetTargetsClip marks the relationship as driving the secondary's clip.
// It has no effect once applied.
func (rel *ContentRelationship) SetTargetsClip(v bool) {
	if !rel.applied && !rel.pending {
		rel.targetsClip = v
	}
}

// Auxiliary reports whether the relationship keeps an escaped visual's
// shadow property in sync.
func (rel *ContentRelationship) Auxiliary() bool { return rel.auxiliary }

// SetAuxiliary marks the relationship as auxiliary.
func (rel *ContentRelationship) SetAuxiliary(v bool) { rel.auxiliary = v }

// AddCurve appends a curve. It has no effect once applied.
func (rel *ContentRelationship) AddCurve(c *ParametricCurve) {
	if !rel.applied && !rel.pending {
		rel.curves = append(rel.curves, c)
	}
}

// Curves returns the relationship's curves.
func (rel *ContentRelationship) Curves() []*ParametricCurve { return rel.curves }

// IsApplied reports whether the relationship is materialized.
func (rel *ContentRelationship) IsApplied() bool { return rel.applied }

// IsPending reports whether Apply was called but the registry has not yet
// materialized the relationship.
func (rel *ContentRelationship) IsPending() bool { return rel.pending }

func (rel *ContentRelationship) definitions() []CurveDefinition {
	defs := make([]CurveDefinition, len(rel.bindings))
	for i, b := range rel.bindings {
		defs[i] = b.curve.Definition()
		defs[i].Property = b.property
	}
	return defs
}

func defaultProperty(a Axis) string {
	switch a {
	case AxisTranslationX:
		return PropertyTranslateX
	case AxisTranslationY:
		return PropertyTranslateY
	}
	return PropertyScale
}

// resolve binds every curve to its axis and holder property.
func (rel *ContentRelationship) resolve() error {
	if len(rel.curves) == 0 {
		return fmt.Errorf("relationship %d: %w", rel.id, ErrNoSegments)
	}
	bindings := make([]curveBinding, 0, len(rel.curves))
	for _, c := range rel.curves {
		if c == nil || c.NumSegments() == 0 {
			return fmt.Errorf("relationship %d: %w", rel.id, ErrNoSegments)
		}
		prop := c.Property
		if prop == "" {
			prop = defaultProperty(c.PrimaryAxis)
		}
		bindings = append(bindings, curveBinding{curve: c, axis: c.PrimaryAxis, property: prop})
	}
	rel.bindings = bindings
	return nil
}

// Apply resolves the curves against the live primary and holder, pins the
// primary element, and asks the registry to materialize the relationship.
// Relationships applied in the same turn are materialized in call order.
func (rel *ContentRelationship) Apply() error {
	if rel.applied || rel.pending {
		return nil
	}
	if rel.registry == nil {
		return ErrServiceUnavailable
	}
	primary := rel.primary.Value()
	if primary == nil || primary.IsDisposed() {
		return fmt.Errorf("relationship %d primary: %w", rel.id, ErrReleased)
	}
	if h := rel.holder.Value(); h == nil || h.IsDisposed() {
		return fmt.Errorf("relationship %d holder: %w", rel.id, ErrReleased)
	}
	if s := rel.secondary.Value(); s == nil || s.IsDisposed() {
		return fmt.Errorf("relationship %d secondary: %w", rel.id, ErrReleased)
	}
	if err := rel.resolve(); err != nil {
		return err
	}
	rel.keepAlive = primary
	rel.pending = true
	return rel.registry.ApplySecondaryContentRelationship(rel)
}

// primaryTransform returns the live transform of the primary element.
func (rel *ContentRelationship) primaryTransform() (Transform, bool) {
	p := rel.keepAlive
	if p == nil {
		return Transform{}, false
	}
	if rel.registry != nil {
		if v := rel.registry.ViewportFor(p); v != nil {
			return v.transform, true
		}
	}
	return p.ManipulationTransform(), true
}

// evaluate runs one binding against t, applying the scroll-offset sign
// convention on translation axes.
func (b curveBinding) evaluate(t Transform) float64 {
	in := t.Axis(b.axis)
	if !b.axis.isTranslation() {
		return b.curve.Evaluate(in)
	}
	return -b.curve.Evaluate(-in)
}

// UpdateDependencyProperties writes curve results to the holder. Clip and
// auxiliary relationships are evaluated on every call. Others are driven
// by the service's live transform and are only written when the
// manipulation completes, so the resting value survives the detach.
func (rel *ContentRelationship) UpdateDependencyProperties(isManipulationCompleting bool) error {
	if !rel.applied {
		return nil
	}
	if !rel.targetsClip && !rel.auxiliary && !isManipulationCompleting {
		return nil
	}
	holder := rel.holder.Value()
	if holder == nil || holder.IsDisposed() {
		return fmt.Errorf("relationship %d holder: %w", rel.id, ErrReleased)
	}
	t, ok := rel.primaryTransform()
	if !ok {
		return fmt.Errorf("relationship %d primary: %w", rel.id, ErrReleased)
	}
	for _, b := range rel.bindings {
		holder.SetProperty(b.property, b.evaluate(t))
	}
	return nil
}

// Remove detaches the relationship from the registry and drops the
// keep-alive. It is safe to call repeatedly and before Apply succeeded.
func (rel *ContentRelationship) Remove() error {
	var err error
	if rel.registry != nil && (rel.applied || rel.pending) {
		err = rel.registry.RemoveSecondaryContentRelationship(rel)
	}
	rel.keepAlive = nil
	rel.applied = false
	rel.pending = false
	rel.token = 0
	return err
}
