package compat

import (
	"fmt"
	"strings"

	"pcbuild/core/types"
)

// Rule names
const (
	RuleSocket     = "socket_match"
	RuleMemoryType = "memory_type_match"
	RulePower      = "power_sufficiency"
	RuleFormFactor = "form_factor_fit"
)

// SocketRule requires the CPU socket to match the motherboard socket
type SocketRule struct{}

func (SocketRule) Name() string { return RuleSocket }

func (SocketRule) Description() string {
	return "CPU socket must match the motherboard socket"
}

func (SocketRule) Evaluate(sel types.Selections) (string, bool) {
	cpu, mb := sel[types.CategoryCPU], sel[types.CategoryMotherboard]
	if cpu == nil || mb == nil {
		return "", false
	}
	if sameValue(cpu.Specs.Socket, mb.Specs.Socket) {
		return "", false
	}
	return fmt.Sprintf("CPU socket (%s) is not compatible with motherboard socket (%s)",
		display(cpu.Specs.Socket), display(mb.Specs.Socket)), true
}

// MemoryTypeRule requires the RAM type to match the motherboard
type MemoryTypeRule struct{}

func (MemoryTypeRule) Name() string { return RuleMemoryType }

func (MemoryTypeRule) Description() string {
	return "RAM memory type must match the motherboard memory type"
}

func (MemoryTypeRule) Evaluate(sel types.Selections) (string, bool) {
	ram, mb := sel[types.CategoryRAM], sel[types.CategoryMotherboard]
	if ram == nil || mb == nil {
		return "", false
	}
	if sameValue(ram.Specs.MemoryType, mb.Specs.MemoryType) {
		return "", false
	}
	return fmt.Sprintf("RAM type (%s) is not compatible with motherboard memory type (%s)",
		display(ram.Specs.MemoryType), display(mb.Specs.MemoryType)), true
}

// PowerRule requires PSU wattage to cover CPU TDP + GPU TDP + headroom
type PowerRule struct {
	HeadroomWatts int
}

func (PowerRule) Name() string { return RulePower }

func (r PowerRule) Description() string {
	return fmt.Sprintf("PSU wattage must cover CPU TDP + GPU TDP + %dW", r.HeadroomWatts)
}

// Requirement returns the estimated system draw for a CPU and GPU
func (r PowerRule) Requirement(cpu, gpu *types.Component) int {
	return cpu.Specs.TDP + gpu.Specs.TDP + r.HeadroomWatts
}

func (r PowerRule) Evaluate(sel types.Selections) (string, bool) {
	cpu, gpu, psu := sel[types.CategoryCPU], sel[types.CategoryGPU], sel[types.CategoryPSU]
	if cpu == nil || gpu == nil || psu == nil {
		return "", false
	}
	if cpu.Specs.TDP <= 0 || gpu.Specs.TDP <= 0 || psu.Specs.Wattage <= 0 {
		return "", false
	}
	required := r.Requirement(cpu, gpu)
	if psu.Specs.Wattage >= required {
		return "", false
	}
	return fmt.Sprintf("PSU wattage (%dW) may be insufficient. Estimated requirement: %dW",
		psu.Specs.Wattage, required), true
}

// FormFactorRule requires the case to list the motherboard form factor
type FormFactorRule struct {
	Separator string
}

func (FormFactorRule) Name() string { return RuleFormFactor }

func (FormFactorRule) Description() string {
	return "Case must support the motherboard form factor"
}

// Supported splits a case form factor list
func (r FormFactorRule) Supported(caseFormFactor string) []string {
	sep := r.Separator
	if sep == "" {
		sep = ","
	}
	var out []string
	for _, ff := range strings.Split(caseFormFactor, sep) {
		if ff = strings.TrimSpace(ff); ff != "" {
			out = append(out, ff)
		}
	}
	return out
}

func (r FormFactorRule) Evaluate(sel types.Selections) (string, bool) {
	mb, pcCase := sel[types.CategoryMotherboard], sel[types.CategoryCase]
	if mb == nil || pcCase == nil {
		return "", false
	}
	supported := r.Supported(pcCase.Specs.FormFactor)
	if !specified(mb.Specs.FormFactor) && len(supported) == 0 {
		return "", false
	}
	for _, ff := range supported {
		if sameValue(ff, mb.Specs.FormFactor) {
			return "", false
		}
	}
	listed := strings.Join(supported, ", ")
	if listed == "" {
		listed = unspecified
	}
	return fmt.Sprintf("Motherboard form factor (%s) is not supported by case (supports: %s)",
		display(mb.Specs.FormFactor), listed), true
}

func specified(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// unspecified stands in for a blank attribute in issue text
const unspecified = "unspecified"

func display(v string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return unspecified
}

// sameValue compares trimmed attributes case-insensitively. Two blank
// values match; one blank value never matches a specified one.
func sameValue(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
