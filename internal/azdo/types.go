package azdo

import "github.com/tidwall/gjson"

// WorkItem is the slice of an Azure DevOps work item the diagnostics need.
type WorkItem struct {
	ID       int    `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	State    string `json:"state"`
	AreaPath string `json:"area_path"`
	ParentID int    `json:"parent_id,omitempty"`
}

// convertWorkItem maps one API work item payload to a WorkItem. Field keys
// contain dots, so gjson path lookups escape them.
func convertWorkItem(v gjson.Result) WorkItem {
	fields := v.Get("fields")
	return WorkItem{
		ID:       int(v.Get("id").Int()),
		Type:     fields.Get(`System\.WorkItemType`).String(),
		Title:    fields.Get(`System\.Title`).String(),
		State:    fields.Get(`System\.State`).String(),
		AreaPath: fields.Get(`System\.AreaPath`).String(),
		ParentID: int(fields.Get(`System\.Parent`).Int()),
	}
}
