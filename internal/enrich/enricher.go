package enrich

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/oncallzero/triage-cli/api/schemas"
)

// Enricher produces the code contexts, root-cause analysis, and commit list
// for an error record.
type Enricher struct {
	contexts ContextSource
	blame    BlameSource
	reasoner schemas.Reasoner
	logger   *zap.Logger
}

// New creates an enricher over the given sources and reasoning collaborator.
func New(contexts ContextSource, blame BlameSource, reasoner schemas.Reasoner, logger *zap.Logger) *Enricher {
	return &Enricher{
		contexts: contexts,
		blame:    blame,
		reasoner: reasoner,
		logger:   logger.Named("enricher"),
	}
}

// Result bundles the enrichment artifacts for one error record.
type Result struct {
	CodeAnalysis []schemas.CodeContext
	LLMAnalysis  schemas.RootCauseAnalysis
	GitCommits   []schemas.CommitInfo
}

// Enrich resolves source context per stack frame, gathers best-effort blame,
// invokes the reasoning collaborator, and derives the deduplicated commit
// list. Unresolvable frames degrade to empty contexts; a reasoner failure
// aborts with *schemas.AnalysisUnavailable.
func (e *Enricher) Enrich(ctx context.Context, record *schemas.ErrorRecord) (*Result, error) {
	if record == nil {
		return nil, fmt.Errorf("error record is required")
	}

	contexts := e.analyzeCode(record)

	analysis, err := e.reasoner.Analyze(ctx, record, contexts)
	if err != nil {
		return nil, &schemas.AnalysisUnavailable{ErrorID: record.ErrorID, Err: err}
	}

	return &Result{
		CodeAnalysis: contexts,
		LLMAnalysis:  *analysis,
		GitCommits:   deriveCommits(contexts),
	}, nil
}

// analyzeCode builds one CodeContext per implicated file, in order of first
// appearance in the stack trace (outermost first).
func (e *Enricher) analyzeCode(record *schemas.ErrorRecord) []schemas.CodeContext {
	var order []string
	byFile := make(map[string]*schemas.CodeContext)

	for _, raw := range record.StackTrace {
		frame, ok := parseFrame(raw)
		if !ok {
			e.logger.Warn("Skipping unparsable stack frame",
				zap.String("error_id", record.ErrorID), zap.String("frame", raw))
			continue
		}

		cc, seen := byFile[frame.FilePath]
		if !seen {
			cc = &schemas.CodeContext{
				FilePath:     frame.FilePath,
				ContextLines: map[int]string{},
				BlameInfo:    map[int]schemas.BlameEntry{},
			}
			byFile[frame.FilePath] = cc
			order = append(order, frame.FilePath)
		}

		if _, dup := cc.ContextLines[frame.Line]; dup {
			continue
		}

		window, err := e.contexts.Window(frame.FilePath, frame.Line)
		if err != nil {
			// Partial-failure tolerant: the frame stays as an empty context.
			e.logger.Debug("No source context for frame",
				zap.String("file", frame.FilePath), zap.Int("line", frame.Line), zap.Error(err))
			continue
		}

		cc.ErrorLines = append(cc.ErrorLines, frame.Line)
		for n, text := range window {
			cc.ContextLines[n] = text
		}
		if entry, ok := e.blame.Blame(frame.FilePath, frame.Line); ok {
			cc.BlameInfo[frame.Line] = entry
		}
	}

	out := make([]schemas.CodeContext, 0, len(order))
	for _, file := range order {
		cc := byFile[file]
		sort.Ints(cc.ErrorLines)
		out = append(out, *cc)
	}
	return out
}

// deriveCommits collects the union of commits referenced by blame entries,
// deduplicated by hash, each carrying the sorted set of files whose blame
// references it.
func deriveCommits(contexts []schemas.CodeContext) []schemas.CommitInfo {
	var order []string
	byHash := make(map[string]*schemas.CommitInfo)
	filesByHash := make(map[string]map[string]struct{})

	for _, cc := range contexts {
		lines := make([]int, 0, len(cc.BlameInfo))
		for n := range cc.BlameInfo {
			lines = append(lines, n)
		}
		sort.Ints(lines)

		for _, n := range lines {
			entry := cc.BlameInfo[n]
			if entry.Commit == "" {
				continue
			}
			info, seen := byHash[entry.Commit]
			if !seen {
				info = &schemas.CommitInfo{
					Hash:    entry.Commit,
					Author:  entry.Author,
					Date:    entry.Date,
					Message: fmt.Sprintf("Update %s", cc.FilePath),
				}
				byHash[entry.Commit] = info
				filesByHash[entry.Commit] = make(map[string]struct{})
				order = append(order, entry.Commit)
			}
			filesByHash[entry.Commit][cc.FilePath] = struct{}{}
		}
	}

	out := make([]schemas.CommitInfo, 0, len(order))
	for _, hash := range order {
		info := byHash[hash]
		for file := range filesByHash[hash] {
			info.FilesChanged = append(info.FilesChanged, file)
		}
		sort.Strings(info.FilesChanged)
		out = append(out, *info)
	}
	return out
}
