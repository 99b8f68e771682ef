// Package ast defines the syntax tree produced by the parser and consumed
// by both the evaluator and the code generator. Nodes are pure data: no
// behaviour beyond the marker interfaces and line accessors lives here.
package ast

// Node is implemented by every syntax node.
type Node interface {
	// Pos reports the 1-based source line the node starts on.
	Pos() int
}

// Statement marks nodes that appear in statement position.
type Statement interface {
	Node
	stmtNode()
}

// Expression marks nodes that appear in expression position.
type Expression interface {
	Node
	exprNode()
}

// Program is a parsed source file.
type Program struct {
	Statements []Statement
}

// Param is one declared function or method parameter. Default is nil when
// the parameter has no "defaulting to" clause.
type Param struct {
	Name    string
	Default Expression
}

//-----------------------------------------------------------------------------
// Expressions
//-----------------------------------------------------------------------------

type NumberLiteral struct {
	Value float64
	Line  int
}

type TextLiteral struct {
	Value string
	Line  int
}

// InterpolatedText is quoted text containing {expr} holes. Parts alternates
// freely between TextLiteral segments and embedded expressions.
type InterpolatedText struct {
	Parts []Expression
	Line  int
}

type BoolLiteral struct {
	Value bool
	Line  int
}

type NothingLiteral struct {
	Line int
}

type Identifier struct {
	Name string
	Line int
}

// BinaryOp names for Binary.Op.
const (
	OpPlus      = "plus"
	OpMinus     = "minus"
	OpTimes     = "times"
	OpDividedBy = "divided_by"
	OpModulo    = "modulo"
)

type Binary struct {
	Left  Expression
	Op    string
	Right Expression
	Line  int
}

type UnaryMinus struct {
	Operand Expression
	Line    int
}

// Comparison operator names for Compare.Op.
const (
	CmpEquals       = "equals"
	CmpNotEquals    = "not_equals"
	CmpGreater      = "greater_than"
	CmpLess         = "less_than"
	CmpGreaterEqual = "greater_equal"
	CmpLessEqual    = "less_equal"
)

// Compare is a single comparison. Right is nil for nothing-checks folded
// into equality against NothingLiteral by the parser.
type Compare struct {
	Left  Expression
	Op    string
	Right Expression
	Line  int
}

// TypeCheck is "X is a number / text / list / boolean / dictionary / nothing".
type TypeCheck struct {
	Expr     Expression
	Expected string
	Negated  bool
	Line     int
}

// Logical joins two conditions with "and" or "or".
type Logical struct {
	Left       Expression
	Connective string // "and" | "or"
	Right      Expression
	Line       int
}

type ListLiteral struct {
	Elements []Expression
	Line     int
}

type DictPair struct {
	Key   Expression
	Value Expression
}

type DictLiteral struct {
	Pairs []DictPair
	Line  int
}

// ListAccess is "item N of L"; indexes are 1-based.
type ListAccess struct {
	List  Expression
	Index Expression
	Line  int
}

type DictAccess struct {
	Dict Expression
	Key  Expression
	Line int
}

// DictHasKey is "D has key K".
type DictHasKey struct {
	Dict Expression
	Key  Expression
	Line int
}

type DictKeys struct {
	Dict Expression
	Line int
}

// StringIndex is "character N of S"; 1-based.
type StringIndex struct {
	Str   Expression
	Index Expression
	Line  int
}

// StringSlice is "characters A to B of S"; inclusive, 1-based.
type StringSlice struct {
	Str   Expression
	Start Expression
	End   Expression
	Line  int
}

type LengthOf struct {
	Expr Expression
	Line int
}

type UppercaseOf struct {
	Expr Expression
	Line int
}

type LowercaseOf struct {
	Expr Expression
	Line int
}

type TrimOf struct {
	Expr Expression
	Line int
}

// Contains covers both "S contains T" on text and "L contains X" on lists.
type Contains struct {
	Haystack Expression
	Needle   Expression
	Line     int
}

// IndexOf is "the index of X in L"; 1-based, 0 when absent.
type IndexOf struct {
	Item Expression
	List Expression
	Line int
}

type SplitBy struct {
	Source    Expression
	Delimiter Expression
	Line      int
}

type JoinWith struct {
	List      Expression
	Separator Expression
	Line      int
}

type ReplaceIn struct {
	Source      Expression
	Find        Expression
	Replacement Expression
	Line        int
}

// RepeatText is "X repeated N times".
type RepeatText struct {
	Expr  Expression
	Count Expression
	Line  int
}

// RoundOf rounds to Places decimal places; Places nil rounds to integer.
type RoundOf struct {
	Expr   Expression
	Places Expression
	Line   int
}

type AbsOf struct {
	Expr Expression
	Line int
}

type SqrtOf struct {
	Expr Expression
	Line int
}

type FloorOf struct {
	Expr Expression
	Line int
}

type CeilingOf struct {
	Expr Expression
	Line int
}

type PowerOf struct {
	Base Expression
	Exp  Expression
	Line int
}

type MinOf struct {
	Left  Expression
	Right Expression
	Line  int
}

type MaxOf struct {
	Left  Expression
	Right Expression
	Line  int
}

type RandomBetween struct {
	Low  Expression
	High Expression
	Line int
}

type AsNumber struct {
	Expr Expression
	Line int
}

type AsText struct {
	Expr Expression
	Line int
}

type FileContents struct {
	File Expression
	Line int
}

type FileExists struct {
	File Expression
	Line int
}

// TimeOp kinds: "datetime", "year", "timestamp".
type TimeOp struct {
	Op   string
	Line int
}

type JSONParse struct {
	Text Expression
	Line int
}

type JSONString struct {
	Value Expression
	Line  int
}

type HTTPGet struct {
	URL  Expression
	Line int
}

type HTTPPost struct {
	URL     Expression
	Payload Expression
	Line    int
}

// NewInstance is "a new C with p: v, ...".
type NewInstance struct {
	ClassName string
	Args      []DictPair
	Line      int
}

// PropertyAccess is "the P of O".
type PropertyAccess struct {
	Object   Expression
	Property string
	Line     int
}

// Lambda is a single-expression inline function.
type Lambda struct {
	Params []Param
	Body   Expression
	Line   int
}

// BlockLambda is a multi-statement inline function.
type BlockLambda struct {
	Params []Param
	Body   []Statement
	Async  bool
	Line   int
}

// MapOver is "apply F to each item in L" producing a new list.
type MapOver struct {
	Func Expression
	List Expression
	Line int
}

// AllWhere is "all X in L where COND", preserving source order.
type AllWhere struct {
	VarName   string
	Source    Expression
	Condition Expression
	Line      int
}

// FilterWhere is "the result of filtering L where COND". The condition
// sees each element as the implicit variable "item".
type FilterWhere struct {
	List      Expression
	Condition Expression
	Line      int
}

// CallResult is a value-position function or method call.
type CallResult struct {
	Name   string
	Args   []Expression
	Object Expression // nil for plain function calls
	Line   int
}

// Wait is "waiting for T": joins an async task value.
type Wait struct {
	Expr Expression
	Line int
}

type CommandLineArgs struct {
	Line int
}

type EnvironmentVariable struct {
	Name Expression
	Line int
}

// RegexMatch extracts the first capture (or whole match) of Pattern in Text;
// gives back nothing when there is no match.
type RegexMatch struct {
	Pattern Expression
	Text    Expression
	Line    int
}

// RegexTest reports whether Text matches Pattern.
type RegexTest struct {
	Text    Expression
	Pattern Expression
	Line    int
}

//-----------------------------------------------------------------------------
// Statements
//-----------------------------------------------------------------------------

type LetStmt struct {
	Name string
	Expr Expression
	Line int
}

type DisplayStmt struct {
	Expr Expression
	Line int
}

// SayStmt prints its parts joined by single spaces.
type SayStmt struct {
	Parts []Expression
	Line  int
}

type AskStmt struct {
	Variable string
	Line     int
}

type IfStmt struct {
	Condition Expression
	Then      []Statement
	Else      []Statement
	Line      int
}

type RepeatStmt struct {
	Count Expression
	Body  []Statement
	Line  int
}

type WhileStmt struct {
	Condition Expression
	Body      []Statement
	Line      int
}

type ForEachStmt struct {
	Var      string
	Iterable Expression
	Body     []Statement
	Line     int
}

// ForRangeStmt is "For each X from A to B [step S] do the following."
// Bounds are inclusive; Step nil means 1.
type ForRangeStmt struct {
	Var  string
	From Expression
	To   Expression
	Step Expression
	Body []Statement
	Line int
}

type FunctionDef struct {
	Name   string
	Params []Param
	Body   []Statement
	Async  bool
	Line   int
}

type ClassDef struct {
	Name       string
	Properties []string
	Parent     string // empty when the class has no parent
	Line       int
}

type MethodDef struct {
	ClassName string
	Name      string
	Params    []Param
	Body      []Statement
	Async     bool
	Line      int
}

type EnumDef struct {
	Name   string
	Values []string
	Line   int
}

// ChainedCall is one link of "and then call M2 with ...".
type ChainedCall struct {
	Name string
	Args []Expression
	Line int
}

// CallStmt is "Call F [with args] [on obj] [and then call ...].".
type CallStmt struct {
	Name    string
	Args    []Expression
	Object  Expression // nil for plain function calls
	Chained []ChainedCall
	Line    int
}

// LetResultStmt is "Let v be the result of calling F with ...".
type LetResultStmt struct {
	Variable string
	FuncName string
	Args     []Expression
	Object   Expression
	Chained  []ChainedCall
	Line     int
}

type GiveBackStmt struct {
	Expr Expression
	Line int
}

type AddToListStmt struct {
	Value    Expression
	ListName string
	Line     int
}

type RemoveFromListStmt struct {
	Index    Expression
	ListName string
	Line     int
}

// SortListStmt sorts the named list in place.
type SortListStmt struct {
	ListName string
	Line     int
}

type SetPropertyStmt struct {
	Object   Expression
	Property string
	Value    Expression
	Line     int
}

type SetDictValueStmt struct {
	Dict  Expression
	Key   Expression
	Value Expression
	Line  int
}

type RemoveDictValueStmt struct {
	Dict Expression
	Key  Expression
	Line int
}

type WriteFileStmt struct {
	Content Expression
	File    Expression
	Line    int
}

type AppendFileStmt struct {
	Content Expression
	File    Expression
	Line    int
}

// ImportStmt loads a built-in module ("database", "math", ...) or another
// source file. Alias renames the binding; Names limits a file import to
// specific definitions.
type ImportStmt struct {
	File  Expression
	Alias string
	Names []string
	Line  int
}

type ThrowStmt struct {
	Message Expression
	Line    int
}

// TryCatchStmt is "Try the following. ... Handle error [and save it as X]. ... End try."
type TryCatchStmt struct {
	TryBody   []Statement
	ErrorVar  string
	CatchBody []Statement
	Line      int
}

// AttemptStmt is "Attempt to do the following. ... Rescue error as X. ... End attempt."
type AttemptStmt struct {
	TryBody   []Statement
	ErrorVar  string
	CatchBody []Statement
	Line      int
}

// CheckCase is one "When V:" arm of a Check statement.
type CheckCase struct {
	Value Expression
	Body  []Statement
}

type CheckStmt struct {
	Expr      Expression
	Cases     []CheckCase
	Otherwise []Statement
	Line      int
}

type StopStmt struct {
	Line int
}

type SkipStmt struct {
	Line int
}

type TestBlock struct {
	Name string
	Body []Statement
	Line int
}

type AssertStmt struct {
	Condition Expression
	Line      int
}

type RunTestsStmt struct {
	Line int
}

// ExpressionStmt evaluates an expression for its effect.
type ExpressionStmt struct {
	Expr Expression
	Line int
}

//-----------------------------------------------------------------------------
// UI statements (interpreted through the UI capability)
//-----------------------------------------------------------------------------

type CreateWindowStmt struct {
	VarName string
	Title   Expression
	Width   Expression
	Height  Expression
	Line    int
}

// AddWidgetStmt places a widget on a window. Callback carries the handler
// for buttons; layout expressions are nil when unspecified.
type AddWidgetStmt struct {
	WidgetType string // "button", "label", "input"
	Window     Expression
	Label      Expression
	VarName    string
	Callback   Expression
	Row        Expression
	Col        Expression
	Colspan    Expression
	Line       int
}

type RunWindowStmt struct {
	Window Expression
	Line   int
}

type SetTextStmt struct {
	Widget Expression
	Value  Expression
	Line   int
}

// WhenStmt binds Body to a UI event: "enter", "escape", "key:<k>",
// "close", or "change".
type WhenStmt struct {
	Event  string
	Widget Expression
	Body   []Statement
	Line   int
}

//-----------------------------------------------------------------------------
// Pos and marker implementations
//-----------------------------------------------------------------------------

func (n *NumberLiteral) Pos() int       { return n.Line }
func (n *TextLiteral) Pos() int         { return n.Line }
func (n *InterpolatedText) Pos() int    { return n.Line }
func (n *BoolLiteral) Pos() int         { return n.Line }
func (n *NothingLiteral) Pos() int      { return n.Line }
func (n *Identifier) Pos() int          { return n.Line }
func (n *Binary) Pos() int              { return n.Line }
func (n *UnaryMinus) Pos() int          { return n.Line }
func (n *Compare) Pos() int             { return n.Line }
func (n *TypeCheck) Pos() int           { return n.Line }
func (n *Logical) Pos() int             { return n.Line }
func (n *ListLiteral) Pos() int         { return n.Line }
func (n *DictLiteral) Pos() int         { return n.Line }
func (n *ListAccess) Pos() int          { return n.Line }
func (n *DictAccess) Pos() int          { return n.Line }
func (n *DictHasKey) Pos() int          { return n.Line }
func (n *DictKeys) Pos() int            { return n.Line }
func (n *StringIndex) Pos() int         { return n.Line }
func (n *StringSlice) Pos() int         { return n.Line }
func (n *LengthOf) Pos() int            { return n.Line }
func (n *UppercaseOf) Pos() int         { return n.Line }
func (n *LowercaseOf) Pos() int         { return n.Line }
func (n *TrimOf) Pos() int              { return n.Line }
func (n *Contains) Pos() int            { return n.Line }
func (n *IndexOf) Pos() int             { return n.Line }
func (n *SplitBy) Pos() int             { return n.Line }
func (n *JoinWith) Pos() int            { return n.Line }
func (n *ReplaceIn) Pos() int           { return n.Line }
func (n *RepeatText) Pos() int          { return n.Line }
func (n *RoundOf) Pos() int             { return n.Line }
func (n *AbsOf) Pos() int               { return n.Line }
func (n *SqrtOf) Pos() int              { return n.Line }
func (n *FloorOf) Pos() int             { return n.Line }
func (n *CeilingOf) Pos() int           { return n.Line }
func (n *PowerOf) Pos() int             { return n.Line }
func (n *MinOf) Pos() int               { return n.Line }
func (n *MaxOf) Pos() int               { return n.Line }
func (n *RandomBetween) Pos() int       { return n.Line }
func (n *AsNumber) Pos() int            { return n.Line }
func (n *AsText) Pos() int              { return n.Line }
func (n *FileContents) Pos() int        { return n.Line }
func (n *FileExists) Pos() int          { return n.Line }
func (n *TimeOp) Pos() int              { return n.Line }
func (n *JSONParse) Pos() int           { return n.Line }
func (n *JSONString) Pos() int          { return n.Line }
func (n *HTTPGet) Pos() int             { return n.Line }
func (n *HTTPPost) Pos() int            { return n.Line }
func (n *NewInstance) Pos() int         { return n.Line }
func (n *PropertyAccess) Pos() int      { return n.Line }
func (n *Lambda) Pos() int              { return n.Line }
func (n *BlockLambda) Pos() int         { return n.Line }
func (n *MapOver) Pos() int             { return n.Line }
func (n *AllWhere) Pos() int            { return n.Line }
func (n *FilterWhere) Pos() int         { return n.Line }
func (n *CallResult) Pos() int          { return n.Line }
func (n *Wait) Pos() int                { return n.Line }
func (n *CommandLineArgs) Pos() int     { return n.Line }
func (n *EnvironmentVariable) Pos() int { return n.Line }
func (n *RegexMatch) Pos() int          { return n.Line }
func (n *RegexTest) Pos() int           { return n.Line }

func (n *LetStmt) Pos() int             { return n.Line }
func (n *DisplayStmt) Pos() int         { return n.Line }
func (n *SayStmt) Pos() int             { return n.Line }
func (n *AskStmt) Pos() int             { return n.Line }
func (n *IfStmt) Pos() int              { return n.Line }
func (n *RepeatStmt) Pos() int          { return n.Line }
func (n *WhileStmt) Pos() int           { return n.Line }
func (n *ForEachStmt) Pos() int         { return n.Line }
func (n *ForRangeStmt) Pos() int        { return n.Line }
func (n *FunctionDef) Pos() int         { return n.Line }
func (n *ClassDef) Pos() int            { return n.Line }
func (n *MethodDef) Pos() int           { return n.Line }
func (n *EnumDef) Pos() int             { return n.Line }
func (n *CallStmt) Pos() int            { return n.Line }
func (n *LetResultStmt) Pos() int       { return n.Line }
func (n *GiveBackStmt) Pos() int        { return n.Line }
func (n *AddToListStmt) Pos() int       { return n.Line }
func (n *RemoveFromListStmt) Pos() int  { return n.Line }
func (n *SortListStmt) Pos() int        { return n.Line }
func (n *SetPropertyStmt) Pos() int     { return n.Line }
func (n *SetDictValueStmt) Pos() int    { return n.Line }
func (n *RemoveDictValueStmt) Pos() int { return n.Line }
func (n *WriteFileStmt) Pos() int       { return n.Line }
func (n *AppendFileStmt) Pos() int      { return n.Line }
func (n *ImportStmt) Pos() int          { return n.Line }
func (n *ThrowStmt) Pos() int           { return n.Line }
func (n *TryCatchStmt) Pos() int        { return n.Line }
func (n *AttemptStmt) Pos() int         { return n.Line }
func (n *CheckStmt) Pos() int           { return n.Line }
func (n *StopStmt) Pos() int            { return n.Line }
func (n *SkipStmt) Pos() int            { return n.Line }
func (n *TestBlock) Pos() int           { return n.Line }
func (n *AssertStmt) Pos() int          { return n.Line }
func (n *RunTestsStmt) Pos() int        { return n.Line }
func (n *ExpressionStmt) Pos() int      { return n.Line }
func (n *CreateWindowStmt) Pos() int    { return n.Line }
func (n *AddWidgetStmt) Pos() int       { return n.Line }
func (n *RunWindowStmt) Pos() int       { return n.Line }
func (n *SetTextStmt) Pos() int         { return n.Line }
func (n *WhenStmt) Pos() int            { return n.Line }

func (*NumberLiteral) exprNode()       {}
func (*TextLiteral) exprNode()         {}
func (*InterpolatedText) exprNode()    {}
func (*BoolLiteral) exprNode()         {}
func (*NothingLiteral) exprNode()      {}
func (*Identifier) exprNode()          {}
func (*Binary) exprNode()              {}
func (*UnaryMinus) exprNode()          {}
func (*Compare) exprNode()             {}
func (*TypeCheck) exprNode()           {}
func (*Logical) exprNode()             {}
func (*ListLiteral) exprNode()         {}
func (*DictLiteral) exprNode()         {}
func (*ListAccess) exprNode()          {}
func (*DictAccess) exprNode()          {}
func (*DictHasKey) exprNode()          {}
func (*DictKeys) exprNode()            {}
func (*StringIndex) exprNode()         {}
func (*StringSlice) exprNode()         {}
func (*LengthOf) exprNode()            {}
func (*UppercaseOf) exprNode()         {}
func (*LowercaseOf) exprNode()         {}
func (*TrimOf) exprNode()              {}
func (*Contains) exprNode()            {}
func (*IndexOf) exprNode()             {}
func (*SplitBy) exprNode()             {}
func (*JoinWith) exprNode()            {}
func (*ReplaceIn) exprNode()           {}
func (*RepeatText) exprNode()          {}
func (*RoundOf) exprNode()             {}
func (*AbsOf) exprNode()               {}
func (*SqrtOf) exprNode()              {}
func (*FloorOf) exprNode()             {}
func (*CeilingOf) exprNode()           {}
func (*PowerOf) exprNode()             {}
func (*MinOf) exprNode()               {}
func (*MaxOf) exprNode()               {}
func (*RandomBetween) exprNode()       {}
func (*AsNumber) exprNode()            {}
func (*AsText) exprNode()              {}
func (*FileContents) exprNode()        {}
func (*FileExists) exprNode()          {}
func (*TimeOp) exprNode()              {}
func (*JSONParse) exprNode()           {}
func (*JSONString) exprNode()          {}
func (*HTTPGet) exprNode()             {}
func (*HTTPPost) exprNode()            {}
func (*NewInstance) exprNode()         {}
func (*PropertyAccess) exprNode()      {}
func (*Lambda) exprNode()              {}
func (*BlockLambda) exprNode()         {}
func (*MapOver) exprNode()             {}
func (*AllWhere) exprNode()            {}
func (*FilterWhere) exprNode()         {}
func (*CallResult) exprNode()          {}
func (*Wait) exprNode()                {}
func (*CommandLineArgs) exprNode()     {}
func (*EnvironmentVariable) exprNode() {}
func (*RegexMatch) exprNode()          {}
func (*RegexTest) exprNode()           {}

func (*LetStmt) stmtNode()             {}
func (*DisplayStmt) stmtNode()         {}
func (*SayStmt) stmtNode()             {}
func (*AskStmt) stmtNode()             {}
func (*IfStmt) stmtNode()              {}
func (*RepeatStmt) stmtNode()          {}
func (*WhileStmt) stmtNode()           {}
func (*ForEachStmt) stmtNode()         {}
func (*ForRangeStmt) stmtNode()        {}
func (*FunctionDef) stmtNode()         {}
func (*ClassDef) stmtNode()            {}
func (*MethodDef) stmtNode()           {}
func (*EnumDef) stmtNode()             {}
func (*CallStmt) stmtNode()            {}
func (*LetResultStmt) stmtNode()       {}
func (*GiveBackStmt) stmtNode()        {}
func (*AddToListStmt) stmtNode()       {}
func (*RemoveFromListStmt) stmtNode()  {}
func (*SortListStmt) stmtNode()        {}
func (*SetPropertyStmt) stmtNode()     {}
func (*SetDictValueStmt) stmtNode()    {}
func (*RemoveDictValueStmt) stmtNode() {}
func (*WriteFileStmt) stmtNode()       {}
func (*AppendFileStmt) stmtNode()      {}
func (*ImportStmt) stmtNode()          {}
func (*ThrowStmt) stmtNode()           {}
func (*TryCatchStmt) stmtNode()        {}
func (*AttemptStmt) stmtNode()         {}
func (*CheckStmt) stmtNode()           {}
func (*StopStmt) stmtNode()            {}
func (*SkipStmt) stmtNode()            {}
func (*TestBlock) stmtNode()           {}
func (*AssertStmt) stmtNode()          {}
func (*RunTestsStmt) stmtNode()        {}
func (*ExpressionStmt) stmtNode()      {}
func (*CreateWindowStmt) stmtNode()    {}
func (*AddWidgetStmt) stmtNode()       {}
func (*RunWindowStmt) stmtNode()       {}
func (*SetTextStmt) stmtNode()         {}
func (*WhenStmt) stmtNode()            {}
