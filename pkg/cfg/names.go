package cfg

import (
	"fmt"
	"unicode"
)

// ValidLabel reports whether label is a syntactically valid block or
// statement label: a letter or underscore followed by letters, digits or
// underscores.
func ValidLabel(label string) bool {
	return isValidLabel(label)
}

func isValidLabel(label string) bool {
	if label == "" {
		return false
	}
	for i, c := range label {
		if c == '_' || unicode.IsLetter(c) {
			continue
		}
		if i > 0 && unicode.IsNumber(c) {
			continue
		}
		return false
	}
	return true
}

func (m *Method) isReserved(name string) bool {
	_, ok := m.reservedLabels[name]
	return ok
}

// isFreshName reports whether name is unused by every namespace: formal
// returns, locals, statement labels, block labels and reserved labels.
// Pending label reservations are not taken into account.
func (m *Method) isFreshName(name string) bool {
	for _, v := range m.formalReturns {
		if v.Name == name {
			return false
		}
	}
	for _, v := range m.localVars {
		if v.Name == name {
			return false
		}
	}
	if _, ok := m.labelSet[name]; ok {
		return false
	}
	if _, ok := m.blockByName[name]; ok {
		return false
	}
	return !m.isReserved(name)
}

// isAvailable is isFreshName that also honours pending label reservations.
func (m *Method) isAvailable(name string) bool {
	if _, ok := m.pendingLabels[name]; ok {
		return false
	}
	return m.isFreshName(name)
}

func (m *Method) generateFreshVarName() string {
	for {
		candidate := fmt.Sprintf("__t%d", m.freshVarIndex)
		m.freshVarIndex++
		if m.isAvailable(candidate) {
			return candidate
		}
	}
}

// FreshLabelName returns a label name that is fresh in every namespace. The
// name is reserved until a statement defining it is added, a block is
// created with it, or it is given back with ReleaseLabel; until then it is
// never handed out again.
func (m *Method) FreshLabelName() string {
	for {
		candidate := fmt.Sprintf("l%d", m.freshLabelIndex)
		m.freshLabelIndex++
		if m.isAvailable(candidate) {
			m.pendingLabels[candidate] = struct{}{}
			return candidate
		}
	}
}

// ReleaseLabel gives back a name obtained from FreshLabelName that was not
// used. It reports whether name was pending.
func (m *Method) ReleaseLabel(name string) bool {
	if _, ok := m.pendingLabels[name]; !ok {
		return false
	}
	delete(m.pendingLabels, name)
	return true
}
