package authz

// Action is the verb half of a permission. The set is closed: adding a new
// action is a code change, not data.
type Action string

const (
	// ActionView allows reading a resource.
	ActionView Action = "View"
	// ActionSearch allows filtered listing of a resource.
	ActionSearch Action = "Search"
	// ActionCreate allows creating a resource.
	ActionCreate Action = "Create"
	// ActionUpdate allows modifying a resource.
	ActionUpdate Action = "Update"
	// ActionDelete allows deleting a resource.
	ActionDelete Action = "Delete"
	// ActionSubmission allows submitting workflow entries for a resource.
	ActionSubmission Action = "Submission"
	// ActionExport allows exporting a resource.
	ActionExport Action = "Export"
	// ActionGenerate allows generating derived artifacts for a resource.
	ActionGenerate Action = "Generate"
	// ActionClean allows purging derived or stale data for a resource.
	ActionClean Action = "Clean"
)

// Actions returns every known action.
func Actions() []Action {
	return []Action{
		ActionView,
		ActionSearch,
		ActionCreate,
		ActionUpdate,
		ActionDelete,
		ActionSubmission,
		ActionExport,
		ActionGenerate,
		ActionClean,
	}
}
