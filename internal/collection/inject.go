package collection

import (
	"fmt"

	"postman-sync/internal/scripts"

	"github.com/google/uuid"
)

// InjectTests walks the collection tree and replaces the test event of
// every request leaf with one derived from the script map, falling back to
// the "default" entry for unmatched names. The tree is mutated in place;
// folder structure and all non-test events are left untouched.
func InjectTests(col *Collection, scriptMap scripts.Map) error {
	if _, ok := scriptMap[scripts.DefaultKey]; !ok {
		return fmt.Errorf("script map has no %q entry", scripts.DefaultKey)
	}
	for _, item := range col.Items {
		injectItem(item, scriptMap)
	}
	return nil
}

// injectItem applies the recursion rule: a request leaf gets its test
// event replaced, a folder is descended into. Folders are never created
// or deleted here.
func injectItem(item *Item, scriptMap scripts.Map) {
	if item.IsRequest() {
		script, ok := scriptMap[item.Name]
		if !ok {
			script = scriptMap[scripts.DefaultKey]
		}
		setTestEvent(item, script)
		return
	}
	for _, child := range item.Items {
		injectItem(child, scriptMap)
	}
}

// setTestEvent removes any existing test events and appends a fresh one,
// keeping every other event in order.
func setTestEvent(item *Item, script scripts.TestScript) {
	var kept []*Event
	for _, event := range item.Events {
		if event.Listen != ListenTest {
			kept = append(kept, event)
		}
	}
	kept = append(kept, &Event{
		Listen: ListenTest,
		Script: &Script{
			ID:   uuid.NewString(),
			Type: "text/javascript",
			Exec: append([]string(nil), script...),
		},
	})
	item.Events = kept
}
