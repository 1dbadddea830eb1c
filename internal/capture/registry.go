// Package capture turns the host classification into a screen image.
//
// A Registry holds capture methods in a fixed priority order. The
// Orchestrator walks the methods that apply to the current environment,
// skips those whose tools are missing, and returns the first image any of
// them produces.
package capture

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/timvw/hostshot/internal/model"
)

// Method is one way of producing a screenshot.
type Method interface {
	// Name identifies the method in logs, metrics and failure reports.
	Name() string
	// AppliesTo reports whether the method is meaningful for the environment.
	AppliesTo(c model.Classification) bool
	// Available reports whether the method's tools are installed.
	Available(ctx context.Context) bool
	// Capture writes an image to a.Path, or returns a *CaptureError.
	Capture(ctx context.Context, a *Artifact) error
}

type entry struct {
	method   Method
	variants []model.Variant
}

// Registry is an ordered list of capture methods.
type Registry struct {
	entries []entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends m with the lowest priority so far. With no variants the
// method serves VariantScreen only.
func (r *Registry) Register(m Method, variants ...model.Variant) {
	if len(variants) == 0 {
		variants = []model.Variant{model.VariantScreen}
	}
	r.entries = append(r.entries, entry{method: m, variants: variants})
}

// MethodsFor returns the full-chain methods applicable to c, in priority order.
func (r *Registry) MethodsFor(c model.Classification) []Method {
	return r.Select(c, model.VariantScreen)
}

// Select returns the methods applicable to c that serve variant v, in
// priority order.
func (r *Registry) Select(c model.Classification, v model.Variant) []Method {
	var out []Method
	for _, e := range r.entries {
		if !slices.Contains(e.variants, v) {
			continue
		}
		if e.method.AppliesTo(c) {
			out = append(out, e.method)
		}
	}
	return out
}

// Methods returns every registered method, in priority order.
func (r *Registry) Methods() []Method {
	out := make([]Method, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.method
	}
	return out
}

// MethodStatus is one row of a capability report.
type MethodStatus struct {
	Name      string
	Variants  []model.Variant
	Applies   bool
	Available bool
}

// Inspect reports, for every registered method, whether it applies to c and
// whether its tools are installed. Availability is only checked for methods
// that apply.
func (r *Registry) Inspect(ctx context.Context, c model.Classification) []MethodStatus {
	out := make([]MethodStatus, 0, len(r.entries))
	for _, e := range r.entries {
		st := MethodStatus{Name: e.method.Name(), Variants: e.variants, Applies: e.method.AppliesTo(c)}
		if st.Applies {
			st.Available = e.method.Available(ctx)
		}
		out = append(out, st)
	}
	return out
}

// CapabilityText renders an Inspect result for a chat message.
func CapabilityText(c model.Classification, statuses []MethodStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔎 Environment: %s\n", c)
	if c.KernelRelease != "" {
		fmt.Fprintf(&b, "Kernel: %s\n", c.KernelRelease)
	}
	if c.DisplayName != "" {
		fmt.Fprintf(&b, "Display: %s\n", c.DisplayName)
	}
	b.WriteString("\nCapture methods:\n")
	applicable := 0
	for _, st := range statuses {
		if !st.Applies {
			continue
		}
		applicable++
		mark := "❌"
		if st.Available {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %s (%s)\n", mark, st.Name, variantList(st.Variants))
	}
	if applicable == 0 {
		b.WriteString("none apply to this environment\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func variantList(vs []model.Variant) string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.String()
	}
	return strings.Join(names, ", ")
}
