package runtime

// User-facing wording shared between the evaluator and generated programs.
// Both backends must print identical sentences for the same failure, so
// every format string either lives here or inside a shared operation in
// this package.
const (
	// control signals escaping to the top level
	MsgGiveBackOutsideFunction = "'Give back' can only be used inside a function."
	MsgStopOutsideLoop         = "'Stop loop.' can only be used inside a loop."
	MsgSkipOutsideLoop         = "'Skip to next.' can only be used inside a loop."

	// loops
	MsgLoopGuard       = "I have been repeating this loop for far too long. Please check your While condition."
	MsgRepeatNotNumber = "Line %d: Repeat needs a number, got '%s'."
	MsgForEachNotList  = "Line %d: I can only use 'For each' on a list or text."
	MsgRangeStepZero   = "Line %d: Error in range loop: step cannot be zero."

	// list statements
	MsgNotAList       = "Line %d: '%s' is not a list."
	MsgItemOutOfRange = "Line %d: Item %d is out of range (list has %d items)."

	// property / dictionary statements
	MsgSetPropertyTarget = "Line %d: Can only set properties on objects or dictionaries."
	MsgSetDictTarget     = "Line %d: Can only set a value in a dictionary."
	MsgRemoveDictTarget  = "Line %d: Can only remove a value from a dictionary."

	// calls
	MsgFunctionNotFound  = "Line %d: I could not find a function called '%s'."
	MsgFunctionArity     = "Line %d: '%s' needs %s argument(s), but I was given %d."
	MsgLambdaArity       = "Line %d: Lambda expects %d argument(s) but got %d."
	MsgNativeFailed      = "Line %d: Native function '%s' failed: %v"
	MsgChainOnNothing    = "Line %d: Cannot call method '%s' on nothing (previous call returned nothing)."
	MsgNotMappable       = "Line %d: Expected a function or lambda for mapping/filtering."
	MsgApplyNotFound     = "Line %d: Function '%s' not found."
	MsgApplyNativeFailed = "Line %d: Native function '%s' failed when applying: %v"
	MsgApplyArity        = "Line %d: '%s' needs %d argument(s) but got %d."
	MsgMappingNeedsList  = "Line %d: 'mapping' requires a list."
	MsgFilterNeedsList   = "Line %d: 'filtering' requires a list."
	MsgAllWhereNeedsList = "Line %d: 'all ... where' can only filter a list."

	// methods and namespaces
	MsgMethodTarget       = "Line %d: Can only call methods on objects or modules (got %s)."
	MsgMethodNotFound     = "Line %d: Method '%s' not found for class '%s'."
	MsgMethodArity        = "Line %d: Method '%s' expects %s parameters but got %d."
	MsgModuleFuncMissing  = "Line %d: Function '%s' not found in namespace."
	MsgModuleCallFailed   = "Line %d: Error calling '%s': %v"
	MsgExportNotCallable  = "Line %d: Export '%s' is not callable."
	MsgPropertyCallFailed = "Line %d: Error calling method '%s': %v"

	// classes and objects
	MsgClassNotFound       = "Line %d: Class '%s' not found."
	MsgParentClassNotFound = "Line %d: Parent class '%s' not found."
	MsgPropertyNotFound    = "Line %d: Property '%s' not found on object of class '%s'."
	MsgDictKeyNotFound     = "Line %d: Key '%s' not found in dictionary."
	MsgExportNotFound      = "Line %d: Export '%s' not found in namespace."
	MsgPropertyTarget      = "Line %d: Can only access properties on objects, modules or dictionaries (got %s)."

	// statement-level failures
	MsgThrow        = "Line %d: %s"
	MsgAssertFailed = "Line %d: Assertion failed."

	// capability-backed expressions
	MsgFileReadFailed   = "Line %d: Could not read file '%s'. (%v)"
	MsgFileWriteFailed  = "Line %d: Could not write to file '%s'. (%v)"
	MsgFileAppendFailed = "Line %d: Could not append to file '%s'. (%v)"
	MsgJSONParseRequire = "Line %d: JSON parsing requires text."
	MsgJSONParseInvalid = "Line %d: Invalid JSON text format. %v"
	MsgJSONEncodeFailed = "Line %d: Could not convert to JSON. %v"
	MsgJSONPayload      = "Line %d: Could not convert payload to JSON. %v"
	MsgURLNotText       = "Line %d: URL must be text."
	MsgHTTPGetFailed    = "Line %d: Network error fetching URL. %v"
	MsgHTTPPostFailed   = "Line %d: Network error posting to URL. %v"
	MsgRegexInvalid     = "Line %d: Invalid regex pattern. (%v)"

	// input
	AskPromptFormat = "Please enter a value for %s: "

	// traceback rendering for Attempt/Rescue
	TracebackHeader = "\nTraceback (most recent call last):\n"
	FrameFunction   = "function '%s' at line %d"
	FrameMethod     = "method '%s' on class '%s' at line %d"
)

// DefaultLoopCap is the iteration guard both backends apply to While and
// Repeat loops.
const DefaultLoopCap = 10_000_000

// TimeFormat is the "current date and time" layout.
const TimeFormat = "2006-01-02T15:04:05.000000"
