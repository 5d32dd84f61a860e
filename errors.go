package kotoba

import "fmt"

// Kind distinguishes the two ways constructing a Tokenizer can fail. The
// hot path (Tokenize, TokenizeOffsets) is infallible, so every returned
// error here is a construction-time failure over a corrupt or
// incompatible binary artifact.
type Kind int

const (
	// KindMalformedArtifact means an artifact (FST, values blob, matrix,
	// char def, or unk def) failed a structural check.
	KindMalformedArtifact Kind = iota
	// KindVersionMismatch means an artifact's header does not match the
	// layout version this build of kotoba expects.
	KindVersionMismatch
)

func (k Kind) String() string {
	switch k {
	case KindMalformedArtifact:
		return "malformed artifact"
	case KindVersionMismatch:
		return "version mismatch"
	default:
		return "unknown error kind"
	}
}

// Artifact names which of the on-disk dictionary files (five required,
// two optional word-detail files) an Error refers to.
type Artifact int

const (
	ArtifactFST Artifact = iota
	ArtifactVals
	ArtifactMatrix
	ArtifactCharDef
	ArtifactUnkDef
	ArtifactWords
	ArtifactWordsIndex
)

func (a Artifact) String() string {
	switch a {
	case ArtifactFST:
		return "dict.fst"
	case ArtifactVals:
		return "dict.vals"
	case ArtifactMatrix:
		return "matrix.mtx"
	case ArtifactCharDef:
		return "char_def.bin"
	case ArtifactUnkDef:
		return "unk.bin"
	case ArtifactWords:
		return "dict.words"
	case ArtifactWordsIndex:
		return "dict.wordsidx"
	default:
		return "unknown artifact"
	}
}

// Error is kotoba's single construction-time error taxonomy member: a
// Kind (what went wrong), the Artifact it happened on, a human detail
// string, and the underlying error if any.
type Error struct {
	Kind     Kind
	Artifact Artifact
	Detail   string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("kotoba: %s (%s): %s: %v", e.Kind, e.Artifact, e.Detail, e.Err)
	}
	return fmt.Sprintf("kotoba: %s (%s): %s", e.Kind, e.Artifact, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

func malformed(artifact Artifact, detail string, err error) error {
	return &Error{Kind: KindMalformedArtifact, Artifact: artifact, Detail: detail, Err: err}
}

func versionMismatch(artifact Artifact, detail string, err error) error {
	return &Error{Kind: KindVersionMismatch, Artifact: artifact, Detail: detail, Err: err}
}
