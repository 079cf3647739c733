// Package ambiguity implements the Ambiguity Detector (C4): classifies
// a ready task bound for a name-scoped mutation tool as unambiguous,
// multi-target, or FIFO-sensitive, per spec §4.4.
package ambiguity

import (
	"pantry/internal/domain/session"
	"pantry/internal/domain/task"
	"pantry/internal/toolregistry"
)

// Kind classifies why a task requires user confirmation.
type Kind string

const (
	KindMultiTarget Kind = "multi_target"
	KindFIFOOldest  Kind = "fifo_oldest"
	KindFIFOLatest  Kind = "fifo_latest"
)

// Info carries everything the Confirmation Processor (C5) needs to
// build a prompt and option set for an ambiguous task.
type Info struct {
	Type         Kind
	ItemName     string
	Items        []session.InventoryRecord
	OriginalTask *task.Task
}

// Detect inspects t's tool against the naming convention and, for a
// name-scoped mutation, always requires confirmation regardless of
// match count, per spec §4.4. Id-scoped tools never require it. The
// returned Info is nil when the task may proceed unchecked.
func Detect(t *task.Task, inventory []session.InventoryRecord) *Info {
	if t.ConfirmedScope {
		return nil
	}

	itemName := itemNameOf(t)

	if isFIFO, variant := toolregistry.FIFOVariant(t.Tool); isFIFO {
		kind := KindFIFOOldest
		if variant == "latest" {
			kind = KindFIFOLatest
		}
		return &Info{
			Type:         kind,
			ItemName:     itemName,
			Items:        matchingRecords(itemName, inventory),
			OriginalTask: t,
		}
	}

	if toolregistry.IsMultiTargetTool(t.Tool) {
		return &Info{
			Type:         KindMultiTarget,
			ItemName:     itemName,
			Items:        matchingRecords(itemName, inventory),
			OriginalTask: t,
		}
	}

	return nil
}

func itemNameOf(t *task.Task) string {
	for _, key := range []string{"item_name", "item_id"} {
		if p, ok := t.Parameters[key]; ok && !p.IsRef() {
			if s, ok := p.Literal.(string); ok {
				return s
			}
		}
	}
	return ""
}

func matchingRecords(itemName string, inventory []session.InventoryRecord) []session.InventoryRecord {
	if itemName == "" {
		return nil
	}
	var out []session.InventoryRecord
	for _, rec := range inventory {
		if rec.Name == itemName || rec.ID == itemName {
			out = append(out, rec)
		}
	}
	return out
}
