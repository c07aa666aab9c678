package search

import (
	"encoding/json"
	"slices"
	"strings"
)

// DragTypePrefix qualifies the transfer type of a dragged clause; the clause key follows it.
const DragTypePrefix = "multi-select/matcher/"

const dropEffectMove = "move"

// DataTransfer is the payload carrier of a drag gesture.
type DataTransfer interface {
	SetData(typ, data string)
	GetData(typ string) string
	Types() []string
	SetDropEffect(effect string)
	SetEffectAllowed(effect string)
}

// MemoryTransfer is an in-process DataTransfer, used by hosts without a native
// drag and drop primitive.
type MemoryTransfer struct {
	data          map[string]string
	types         []string
	DropEffect    string
	EffectAllowed string
}

func NewMemoryTransfer() *MemoryTransfer {
	return &MemoryTransfer{data: make(map[string]string)}
}

func (t *MemoryTransfer) SetData(typ, data string) {
	if _, ok := t.data[typ]; !ok {
		t.types = append(t.types, typ)
	}
	t.data[typ] = data
}

func (t *MemoryTransfer) GetData(typ string) string { return t.data[typ] }

func (t *MemoryTransfer) Types() []string { return slices.Clone(t.types) }

func (t *MemoryTransfer) SetDropEffect(effect string) { t.DropEffect = effect }

func (t *MemoryTransfer) SetEffectAllowed(effect string) { t.EffectAllowed = effect }

// DragType is the transfer type of the clause with key.
func DragType(key string) string {
	return DragTypePrefix + key
}

// draggedType returns the first clause type in dt that is not target's own.
func draggedType(dt DataTransfer, target Matcher) (string, bool) {
	own := DragType(target.Key)
	for _, typ := range dt.Types() {
		if strings.HasPrefix(typ, DragTypePrefix) && typ != own {
			return typ, true
		}
	}
	return "", false
}

// DragStart stores m in dt.
func (c *Controller) DragStart(dt DataTransfer, m Matcher) bool {
	payload, err := json.Marshal(m)
	if err != nil {
		c.log.V(1).Info("drag payload not encodable", "key", m.Key, "error", err.Error())
		return false
	}
	dt.SetData(DragType(m.Key), string(payload))
	dt.SetEffectAllowed(dropEffectMove)
	return true
}

// DragOver reports whether target accepts the dragged clause.
func (c *Controller) DragOver(dt DataTransfer, target Matcher) bool {
	if _, ok := draggedType(dt, target); !ok {
		return false
	}
	dt.SetDropEffect(dropEffectMove)
	return true
}

// Dragged returns the stored clause named by the payload in dt. The payload is
// JSON, so its values come back as JSON types; only the key is trusted.
func (c *Controller) Dragged(dt DataTransfer, target Matcher) (Matcher, bool) {
	typ, ok := draggedType(dt, target)
	if !ok {
		return Matcher{}, false
	}
	var payload Matcher
	if err := json.Unmarshal([]byte(dt.GetData(typ)), &payload); err != nil {
		c.log.V(1).Info("ignoring malformed drag payload", "type", typ, "error", err.Error())
		return Matcher{}, false
	}
	i := c.indexOf(payload.Key)
	if payload.Key == "" || i == -1 {
		return Matcher{}, false
	}
	return c.matchers[i], true
}

// Drop swaps target with the dragged clause. Payloads that do not name a
// stored clause are ignored.
func (c *Controller) Drop(dt DataTransfer, target Matcher) bool {
	dragged, ok := c.Dragged(dt, target)
	if !ok || dragged.Key == target.Key {
		return false
	}
	return c.SwapMatchers(dragged, target)
}
