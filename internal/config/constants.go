package config

const Version = "0.1.0"

// ConfigFileName is read from the working directory when --config is not given.
const ConfigFileName = "givens.yaml"

// FactsFileExtensions are all recognized facts document extensions
var FactsFileExtensions = []string{".yaml", ".yml"}

// Built-in classifier keys
const (
	AnyTypeName        = "Any"
	NothingTypeName    = "Nothing"
	CollectionTypeName = "Collection"
	ListTypeName       = "List"
	TypeKeyTypeName    = "TypeKey"
	FunctionTypeName   = "Function"
	IntTypeName        = "Int"
	LongTypeName       = "Long"
	DoubleTypeName     = "Double"
	BooleanTypeName    = "Boolean"
	StringTypeName     = "String"
	UnitTypeName       = "Unit"
)

// Synthetic callable names used for framework candidates
const (
	ListOfFuncName   = "listOf"
	LambdaFuncName   = "lambda"
	TypeKeyOfName    = "typeKeyOf"
	LambdaParamName  = "it"
	TagTargetParam   = "$TT"
	ElementKeyPrefix = "element#"
)

// Limits
const (
	// MaxRenderDepth caps nesting when rendering recursive types.
	MaxRenderDepth = 15
	// MaxResolutionDepth is the default bound on nested candidate frames.
	MaxResolutionDepth = 256
)
