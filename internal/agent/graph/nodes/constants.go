package nodes

// Graph node names.
const (
	NodeCrisisGate       = "CrisisGate"
	NodeCrisisResponder  = "CrisisResponder"
	NodeEmpathyResponder = "EmpathyResponder"
)
