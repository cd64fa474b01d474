package store

import "github.com/roach88/unwind/internal/ir"

// Lowering is one cached lowering: the IR produced for a source unit under
// one output dialect.
type Lowering struct {
	// SourceHash is ir.SourceHash of the source text.
	SourceHash string

	// Dialect is the registry name the IR was produced with, qualified by the
	// grammar release when known, e.g. "base+match@3.12".
	Dialect string

	// IRVersion and EngineVersion identify the producer.
	IRVersion     string
	EngineVersion string

	// IRHash is ir.IRHash of IR.
	IRHash string

	IR  ir.IRValue
	Seq int64
}

// Run records one batch invocation over several files.
type Run struct {
	ID      string    `json:"id"`
	Dialect string    `json:"dialect"`
	Seq     int64     `json:"seq"`
	Files   []RunFile `json:"files"`
}

// RunFile is the outcome for one file of a run. IRHash is empty when the
// file failed, and Error holds the failure message.
type RunFile struct {
	Path       string `json:"path"`
	SourceHash string `json:"source_hash"`
	IRHash     string `json:"ir_hash,omitempty"`
	Error      string `json:"error,omitempty"`
}

// OK reports whether the file lowered successfully.
func (f RunFile) OK() bool {
	return f.Error == ""
}
