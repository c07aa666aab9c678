package search

// IntentKind enumerates what an editor asks its controller to do.
type IntentKind int

const (
	// IntentCommit hands over a finished clause: appended by the trailing
	// editor, replacing the edited clause otherwise.
	IntentCommit IntentKind = iota
	// IntentDelete removes the edited clause.
	IntentDelete
	// IntentNavigatePrevious moves editing to the previous clause. Deleting is
	// set when it was triggered by Backspace.
	IntentNavigatePrevious
	IntentNavigateNext
	// IntentInsert places a clause before the edited one.
	IntentInsert
	IntentCancel
	// IntentChanging reports the first uncommitted edit of an existing clause.
	IntentChanging
	IntentSetFunction
	IntentDeleteFunction
)

var intentNames = [...]string{"Commit", "Delete", "NavigatePrevious", "NavigateNext", "Insert", "Cancel", "Changing", "SetFunction", "DeleteFunction"}

func (k IntentKind) String() string {
	if int(k) < len(intentNames) {
		return intentNames[k]
	}
	return "Unknown"
}

// Intent is one request from an editor to the controller.
type Intent struct {
	Kind     IntentKind
	Matcher  Matcher
	Deleting bool
	Function string
}

func Commit(m Matcher) Intent { return Intent{Kind: IntentCommit, Matcher: m} }

func Delete() Intent { return Intent{Kind: IntentDelete} }

func NavigatePrevious(deleting bool) Intent {
	return Intent{Kind: IntentNavigatePrevious, Deleting: deleting}
}

func NavigateNext() Intent { return Intent{Kind: IntentNavigateNext} }

func Insert(m Matcher) Intent { return Intent{Kind: IntentInsert, Matcher: m} }

func Cancel() Intent { return Intent{Kind: IntentCancel} }

func Changing() Intent { return Intent{Kind: IntentChanging} }

func SetFunction(name string) Intent { return Intent{Kind: IntentSetFunction, Function: name} }

func DeleteFunction() Intent { return Intent{Kind: IntentDeleteFunction} }
