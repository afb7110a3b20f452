package gate

// Action names an operation on a resource type.
type Action string

const (
	ActionView    Action = "view"
	ActionList    Action = "list"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionMove    Action = "move" // issue to a user or return to stock
	ActionImport  Action = "import"
	ActionExport  Action = "export"
	ActionRestore Action = "restore"
	ActionAssign  Action = "assign" // change another account's role
)

// Resource types guarded by the gate.
const (
	ResourceAsset  = "asset"
	ResourceUser   = "user"
	ResourceBackup = "backup"
	ResourceReport = "report"
)
