package migrations

import (
	"strings"

	"github.com/aquanode/aqua-engine/model"
	"github.com/aquanode/aqua-engine/storage"
)

// TemplateAliasRewriteMigration rewrites the deprecated
// {{previous.ai_explanation.*}} template form in stored workflows to the
// plain {{previous.*}} form. The engine still accepts the old spelling at
// run time, but persisted documents should carry the canonical one.
func TemplateAliasRewriteMigration(db storage.Storage) (int, error) {
	items, err := db.GetByPrefix([]byte("w:"))
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, item := range items {
		wf := &model.Workflow{}
		if err := wf.FromStorageData(item.Value); err != nil {
			// Corrupt documents are skipped here and surfaced by the store.
			continue
		}

		if !rewriteWorkflowTemplates(wf) {
			continue
		}

		body, err := wf.ToJSON()
		if err != nil {
			return updated, err
		}
		if err := db.Set(item.Key, body); err != nil {
			return updated, err
		}
		updated++
	}

	return updated, nil
}

func rewriteWorkflowTemplates(wf *model.Workflow) bool {
	changed := false
	for i := range wf.Blocks {
		for key, value := range wf.Blocks[i].Config {
			s, ok := value.(string)
			if !ok || !strings.Contains(s, "{{previous.ai_explanation.") {
				continue
			}
			wf.Blocks[i].Config[key] = strings.ReplaceAll(s,
				"{{previous.ai_explanation.", "{{previous.")
			changed = true
		}
	}
	return changed
}
